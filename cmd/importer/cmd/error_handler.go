package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// CLIErrorHandler prints errors for people and maps them to exit codes
type CLIErrorHandler struct {
	logger  logger.Logger
	out     io.Writer
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler writing to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		out:     os.Stderr,
		verbose: verbose,
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if importerErr, ok := errors.AsImporterError(err); ok {
		return h.handleImporterError(importerErr)
	}
	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleImporterError(err *errors.ImporterError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := categoryHelp(err.Category); help != "" {
		fmt.Fprintf(h.out, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.ExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	switch {
	case os.IsNotExist(err):
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	case os.IsPermission(err):
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	case isDiskFullError(err):
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	// cobra reports flag and argument problems as plain errors
	fmt.Fprintf(h.out, "Error: %v\n", err)
	if strings.Contains(err.Error(), "flag") || strings.Contains(err.Error(), "arg") {
		fmt.Fprintf(h.out, "Run 'importer --help' for usage.\n")
	}
	return 1
}

// categoryHelp returns category-specific help text
func categoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)`

	case errors.CategoryParse:
		return `Parse error help:
• Check that --source matches the institution that exported the file
• Export the statement again without editing it in a spreadsheet program
• Statement line numbers in the context above start at 1`

	case errors.CategoryLookup:
		return `Lookup error help:
• Add the missing ISIN to a YAML file under "tickers:" and set isin.map_file`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• IMPORTER_* environment variables override the config file`

	case errors.CategoryStore:
		return `Store error help:
• Check that the database path is writable
• Imports are all or nothing; an interrupted bond update resumes on the next run`

	case errors.CategoryNetwork:
		return `Network error help:
• Check your connection and the bonds.url setting
• Download the workbook manually and pass it with --rates-file`

	default:
		return ""
	}
}

func isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") || strings.Contains(errStr, "disk full")
}
