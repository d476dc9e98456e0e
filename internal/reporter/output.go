package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// RenderFunc writes one report with the given generator
type RenderFunc func(rg *ReportGenerator, writer io.Writer) error

// SafeReportGenerator wraps ReportGenerator with output handling and
// fallbacks
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report_config", config, err).
			WithSuggestion("use one of: console, json, csv")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// Render writes a report to writer. When a JSON or CSV report fails the
// console format is tried before giving up.
func (srg *SafeReportGenerator) Render(render RenderFunc, writer io.Writer) error {
	if render == nil || writer == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "render report", fmt.Errorf("renderer and writer are required"))
	}

	err := render(srg.ReportGenerator, writer)
	if err == nil {
		return nil
	}
	if srg.config.Format == FormatConsole {
		return errors.InternalError(errors.CodeUnexpectedError, "render report", err)
	}

	srg.logger.WithError(err).WithField("fallback_format", FormatConsole).Warn("Report failed, falling back to console format")

	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole
	fallback, ferr := NewReportGenerator(&fallbackConfig)
	if ferr != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "render report", err)
	}

	fmt.Fprintf(writer, "NOTE: report shown in console format, %s output failed: %v\n\n", srg.config.Format, err)
	if ferr := render(fallback, writer); ferr != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "render report",
			fmt.Errorf("both primary and fallback rendering failed: primary=%v, fallback=%v", err, ferr))
	}
	return nil
}

// RenderToFile writes a report to path, or to stdout when path is empty or
// "-". When path cannot be created the report goes to a backup file in the
// temp directory, whose path is returned.
func (srg *SafeReportGenerator) RenderToFile(render RenderFunc, path string) (string, error) {
	if path == "" || path == "-" {
		return "", srg.Render(render, os.Stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		backupPath := backupPath(path)
		srg.logger.WithError(err).WithFields(logger.Fields{
			"original_file": path,
			"backup_file":   backupPath,
		}).Warn("Cannot create report file, writing a backup")

		backup, berr := os.Create(backupPath)
		if berr != nil {
			return "", errors.FileError(errors.CodeFilePermission, path, err)
		}
		defer backup.Close()
		return backupPath, srg.Render(render, backup)
	}
	defer file.Close()

	if err := srg.Render(render, file); err != nil {
		return "", err
	}
	srg.logger.WithField("file", path).Info("Report written")
	return path, nil
}

func backupPath(originalPath string) string {
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s_backup%s", name, ext))
}
