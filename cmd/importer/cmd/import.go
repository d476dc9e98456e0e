package cmd

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"statement-importer/internal/importer"
	"statement-importer/internal/registry"
	"statement-importer/internal/reporter"
	"statement-importer/pkg/errors"
)

var accountID string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace an account's activities with a statement",
	Long: `Import reads one statement file and replaces every activity of the account
with the transactions it holds. The replacement is a single store operation:
either all old activities are gone and all new ones stored, or nothing changes.

Examples:
  importer import --account 6f1c... --source MBANK --file lista_operacji.csv
  importer import --account 6f1c... --source BOSSA --file history.csv --output-format json`,
	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&accountID, "account", "a", "", "id of the account to replace")
	importCmd.Flags().StringVarP(&sourceName, "source", "s", "", "statement source ("+strings.Join(registry.Names(), ", ")+")")
	importCmd.Flags().StringVar(&statementFile, "file", "", "statement file")
	addOutputFlags(importCmd)

	importCmd.MarkFlagRequired("account")
	importCmd.MarkFlagRequired("source")
	importCmd.MarkFlagRequired("file")
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(accountID) == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "account", accountID, nil).
			WithSuggestion("list accounts with 'importer accounts list'")
	}
	return validateSourceFlags(cmd, args)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := readInputFile(statementFile, "statement file")
	if err != nil {
		return err
	}

	reg, err := newRegistry()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	im, err := importer.New(reg, st)
	if err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "create importer", err)
	}

	result, err := im.Import(commandContext(cmd), accountID, sourceName, data)
	if err != nil {
		return err
	}

	return writeReport(cmd, func(rg *reporter.ReportGenerator, w io.Writer) error {
		return rg.WriteImport(result, w)
	})
}
