package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"statement-importer/internal/bonds"
	"statement-importer/internal/importer"
	"statement-importer/internal/quotes"
	"statement-importer/internal/reporter"
	"statement-importer/pkg/errors"
)

var (
	ratesFile    string
	showProgress bool
)

var bondsCmd = &cobra.Command{
	Use:   "bonds",
	Short: "Polish treasury bond values and prices",
}

var bondsValuesCmd = &cobra.Command{
	Use:   "values <BOND-ID>",
	Short: "Print the daily value series of a bond issue",
	Long: `Values reads the treasury rate workbook and prints the value of one bond,
bought for 100, for every day from its issue until buyout.

The workbook is downloaded from bonds.url unless --rates-file is given.

Examples:
  importer bonds values EDO0134
  importer bonds values ROD0136 --rates-file Dane_dotyczace_obligacji.xlsx -f csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBondsValues,
}

var bondsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Store daily quotes for every bond held in any account",
	Long: `Update downloads the treasury rate workbook, finds the EDO and ROD bonds held
in any account and stores a quote for each day of each bond that the database
does not hold yet. An interrupted update resumes where it stopped.

Examples:
  importer bonds update
  importer bonds update --progress --output-format json`,
	Args: cobra.NoArgs,
	RunE: runBondsUpdate,
}

func init() {
	rootCmd.AddCommand(bondsCmd)
	bondsCmd.AddCommand(bondsValuesCmd, bondsUpdateCmd)

	bondsValuesCmd.Flags().StringVar(&ratesFile, "rates-file", "", "local rate workbook (default: download bonds.url)")
	addOutputFlags(bondsValuesCmd)

	bondsUpdateCmd.Flags().BoolVarP(&showProgress, "progress", "p", false, "print step status and quote progress")
	addOutputFlags(bondsUpdateCmd)
}

func runBondsValues(cmd *cobra.Command, args []string) error {
	id := strings.ToUpper(strings.TrimSpace(args[0]))
	if !bonds.IsBondSymbol(id) {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "bond", args[0],
			fmt.Errorf("bond ids start with EDO or ROD"))
	}

	data, err := rateWorkbook(cmd)
	if err != nil {
		return err
	}

	all, err := bonds.ReadBonds(data)
	if err != nil {
		return err
	}

	bond, ok := all.Get(bonds.BondID(id))
	if !ok {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "bond", id,
			fmt.Errorf("no issue %s among %d issues in the rate workbook", id, all.Len()))
	}

	currency := appConfig.QuotesConfig().Currency
	return writeReport(cmd, func(rg *reporter.ReportGenerator, w io.Writer) error {
		return rg.WriteBondValues(bond, currency, w)
	})
}

// rateWorkbook reads --rates-file, or downloads the configured workbook
func rateWorkbook(cmd *cobra.Command) ([]byte, error) {
	if ratesFile != "" {
		return readInputFile(ratesFile, "rate workbook")
	}

	downloader, err := newDownloader()
	if err != nil {
		return nil, err
	}
	return downloader.Fetch(commandContext(cmd), appConfig.Bonds.URL)
}

func runBondsUpdate(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	downloader, err := newDownloader()
	if err != nil {
		return err
	}

	updater, err := importer.NewBondPriceUpdater(downloader, st, appConfig.Bonds.URL, appConfig.QuotesConfig())
	if err != nil {
		return err
	}

	var (
		status   importer.StatusFunc
		progress quotes.ProgressFunc
	)
	if showProgress {
		status = printStatus(cmd.ErrOrStderr())
		progress = printProgress(cmd.ErrOrStderr())
	}

	result, err := updater.Run(commandContext(cmd), status, progress)
	if err != nil {
		if result != nil && result.Quotes != nil && result.Quotes.Emitted > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Stored %d of %d quotes before the failure; run again to resume\n",
				result.Quotes.Emitted, result.Quotes.Staged)
		}
		return err
	}

	return writeReport(cmd, func(rg *reporter.ReportGenerator, w io.Writer) error {
		return rg.WriteBondUpdate(result, w)
	})
}

// printStatus prints step transitions, skipping the initial pending ones
func printStatus(w io.Writer) importer.StatusFunc {
	return func(step importer.Step, status importer.StepStatus, err error) {
		switch status {
		case importer.StatusInProgress:
			fmt.Fprintf(w, "[....] %s\n", step.Description())
		case importer.StatusCompleted:
			fmt.Fprintf(w, "[ ok ] %s\n", step.Description())
		case importer.StatusError:
			fmt.Fprintf(w, "[fail] %s: %v\n", step.Description(), err)
		}
	}
}

// printProgress prints the quote count every 10% and at the end
func printProgress(w io.Writer) quotes.ProgressFunc {
	lastDecile := -1
	return func(emitted, total int) {
		decile := emitted * 10 / total
		if decile == lastDecile && emitted != total {
			return
		}
		lastDecile = decile
		fmt.Fprintf(w, "       %d/%d quotes (%d%%)\n", emitted, total, emitted*100/total)
	}
}
