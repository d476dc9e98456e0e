package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"statement-importer/internal/registry"
	"statement-importer/internal/sample"
	"statement-importer/pkg/errors"
)

var (
	sampleCount int
	sampleSeed  int64
	sampleStart string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a synthetic statement for trying out the importer",
	Long: `Sample writes a randomly generated statement in the format of a source.
The same seed always produces the same file.

Examples:
  importer sample --source MBANK --count 100 -o lista_operacji.csv
  importer sample --source POLISH_BONDS --count 20 --seed 7 -o dyspozycje.xlsx
  importer sample --source BOSSA --start 2023-06-01 -o history.csv`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().StringVarP(&sourceName, "source", "s", "", "statement source ("+strings.Join(registry.Names(), ", ")+")")
	sampleCmd.Flags().IntVarP(&sampleCount, "count", "n", 50, "number of operations")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 1, "random seed")
	sampleCmd.Flags().StringVar(&sampleStart, "start", "2024-01-01", "date of the first operation (YYYY-MM-DD)")
	sampleCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	sampleCmd.MarkFlagRequired("source")
}

func runSample(cmd *cobra.Command, args []string) error {
	source, err := registry.ParseSource(sourceName)
	if err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", sampleStart)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "start", sampleStart, err).
			WithSuggestion("use the YYYY-MM-DD format")
	}

	resolver, err := appConfig.Resolver()
	if err != nil {
		return err
	}

	s, err := sample.NewGenerator(sampleSeed, start, resolver).Generate(source, sampleCount)
	if err != nil {
		return err
	}

	if outputFile == "" || outputFile == "-" {
		_, err := cmd.OutOrStdout().Write(s.Data)
		return err
	}
	if err := os.WriteFile(outputFile, s.Data, 0o644); err != nil {
		return errors.FileError(errors.CodeFilePermission, outputFile, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s sample with %d operations (%d transactions) to %s\n",
		source.Description(), s.Rows, s.Transactions, outputFile)
	return nil
}
