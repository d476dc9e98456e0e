package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"statement-importer/cmd/importer/config"
	"statement-importer/internal/reporter"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Output flags shared by the reporting commands
var (
	outputFormat string
	outputFile   string
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format (console, json, csv)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
}

// writeReport renders a report in the selected format to the command's
// output, or to --output when set
func writeReport(cmd *cobra.Command, render reporter.RenderFunc) error {
	reportConfig, err := config.CreateReportConfig(outputFormat)
	if err != nil {
		return err
	}

	generator, err := reporter.NewSafeReportGenerator(reportConfig, logger.GetGlobalLogger())
	if err != nil {
		return err
	}

	if outputFile == "" || outputFile == "-" {
		return generator.Render(render, cmd.OutOrStdout())
	}

	written, err := generator.RenderToFile(render, outputFile)
	if err != nil {
		return err
	}
	if written != outputFile {
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not write %s, report saved to %s\n", outputFile, written)
	} else if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", written)
	}
	return nil
}

// readInputFile checks and reads a statement or workbook file
func readInputFile(filePath, description string) ([]byte, error) {
	if err := validateFileExists(filePath, description); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	return data, nil
}

// validateFileExists checks if a file exists, is a regular file and is readable
func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, description, filePath, nil).
			WithSuggestion(fmt.Sprintf("pass the %s with --file", description))
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, filePath, err).WithContext("description", description)
	}
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}

	if info.IsDir() {
		return errors.FileError(errors.CodeFileCorrupted, filePath,
			fmt.Errorf("%s is a directory, expected a file", filepath.Base(filePath)))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	file.Close()

	return nil
}
