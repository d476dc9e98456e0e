package cmd

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"statement-importer/internal/importer"
	"statement-importer/internal/models"
	"statement-importer/internal/registry"
	"statement-importer/internal/reporter"
	"statement-importer/internal/store/memory"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Flags shared by parse and import
var (
	sourceName    string
	statementFile string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Print the transactions read from a statement",
	Long: `Parse reads one statement file and prints the transactions it holds without
storing anything.

Examples:
  importer parse --source MBANK --file lista_operacji.csv
  importer parse --source POLISH_BONDS --file dyspozycje.xlsx --output-format json
  importer parse --source BOSSA --file history.csv -f csv -o transactions.csv`,
	PreRunE: validateSourceFlags,
	RunE:    runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&sourceName, "source", "s", "", "statement source ("+strings.Join(registry.Names(), ", ")+")")
	parseCmd.Flags().StringVar(&statementFile, "file", "", "statement file")
	addOutputFlags(parseCmd)

	parseCmd.MarkFlagRequired("source")
	parseCmd.MarkFlagRequired("file")
}

// validateSourceFlags checks the source name and statement file before
// anything is opened
func validateSourceFlags(cmd *cobra.Command, args []string) error {
	if _, err := registry.ParseSource(sourceName); err != nil {
		return err
	}
	return validateFileExists(statementFile, "statement file")
}

func runParse(cmd *cobra.Command, args []string) error {
	data, err := readInputFile(statementFile, "statement file")
	if err != nil {
		return err
	}

	reg, err := newRegistry()
	if err != nil {
		return err
	}

	// Parsing touches no store; an empty in-memory one satisfies the importer.
	im, err := importer.New(reg, memory.New())
	if err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "create importer", err)
	}

	var transactions []models.Transaction
	err = logger.TimedOperation("parse statement", logger.GetGlobalLogger().WithComponent("cli"), func() error {
		var parseErr error
		transactions, _, parseErr = im.Parse(sourceName, data)
		return parseErr
	})
	if err != nil {
		return err
	}

	return writeReport(cmd, func(rg *reporter.ReportGenerator, w io.Writer) error {
		return rg.WriteTransactions(transactions, w)
	})
}
