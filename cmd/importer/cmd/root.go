package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statement-importer/cmd/importer/config"
	"statement-importer/internal/download"
	"statement-importer/internal/registry"
	"statement-importer/internal/store/sqlite"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

var (
	cfgFile string
	envFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// appConfig is loaded once per invocation before any command runs
	appConfig *config.AppConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Brokerage and bank statement importer",
	Long: `Importer reads statements exported by Polish banks and brokers, converts
them into portfolio activities and keeps treasury bond prices up to date.

Supported sources: POLISH_BONDS, MBANK, BOSSA.

Examples:
  importer parse --source MBANK --file statement.csv
  importer accounts add --name "eKonto" --currency PLN
  importer import --account <id> --source BOSSA --file history.csv
  importer bonds values EDO0134
  importer bonds update
  importer schedule --cron "0 18 * * 1-5"`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("database", "", "sqlite database path (overrides config)")
}

// loadConfig reads the .env file, the config file and IMPORTER_* variables,
// then installs the configured global logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	v := viper.New()
	if flag := cmd.Flags().Lookup("database"); flag != nil {
		if err := v.BindPFlag("database", flag); err != nil {
			return errors.InternalError(errors.CodeUnexpectedError, "bind database flag", err)
		}
	}

	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		loaded.Log.Level = string(logger.DebugLevel)
	}

	log, err := logger.NewLogger(loaded.LoggerConfig())
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", loaded.Log, err)
	}
	logger.SetGlobalLogger(log)

	if verbose && v.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	appConfig = loaded
	return nil
}

// openStore opens the configured sqlite database
func openStore() (*sqlite.Store, error) {
	return sqlite.Open(appConfig.Database)
}

// newRegistry builds the statement reader registry with the configured ISIN table
func newRegistry() (*registry.Registry, error) {
	resolver, err := appConfig.Resolver()
	if err != nil {
		return nil, err
	}
	return registry.New(resolver)
}

// newDownloader builds the bond workbook downloader
func newDownloader() (*download.Downloader, error) {
	return download.New(http.DefaultClient, appConfig.DownloadConfig())
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
