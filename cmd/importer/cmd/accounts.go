package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
)

var (
	newAccountID       string
	newAccountName     string
	newAccountCurrency string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage the accounts statements are imported into",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE:  runAccountsList,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Long: `Add creates an account. Without --id a random id is assigned.

Examples:
  importer accounts add --name "eKonto" --currency PLN
  importer accounts add --id bossa --name "BOSSA IKE" --currency PLN`,
	Args: cobra.NoArgs,
	RunE: runAccountsAdd,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd, accountsAddCmd)

	accountsAddCmd.Flags().StringVar(&newAccountID, "id", "", "account id (default: random)")
	accountsAddCmd.Flags().StringVar(&newAccountName, "name", "", "account name")
	accountsAddCmd.Flags().StringVar(&newAccountCurrency, "currency", "PLN", "account currency")
	accountsAddCmd.MarkFlagRequired("name")
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	accounts, err := st.ListAccounts(commandContext(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No accounts")
		return nil
	}
	for _, account := range accounts {
		fmt.Fprintf(out, "%-38s %-4s %s\n", account.ID, account.Currency, account.Name)
	}
	return nil
}

func runAccountsAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(newAccountName)
	if name == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "name", newAccountName, nil)
	}
	currency := strings.ToUpper(strings.TrimSpace(newAccountCurrency))
	if len(currency) != 3 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "currency", newAccountCurrency,
			fmt.Errorf("currency must be a 3 letter code"))
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	account, err := st.CreateAccount(commandContext(cmd), models.Account{
		ID:       strings.TrimSpace(newAccountID),
		Name:     name,
		Currency: currency,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (%s, %s)\n", account.ID, account.Name, account.Currency)
	return nil
}

// commandContext returns the command's context, or a background one when
// the command was executed without one
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
