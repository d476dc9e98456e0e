package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"statement-importer/internal/importer"
	"statement-importer/internal/scheduler"
	"statement-importer/pkg/logger"
)

var (
	cronSpec string
	runNow   bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the bond price update on a cron schedule",
	Long: `Schedule keeps running and performs 'bonds update' on every tick of a cron
expression (minute hour day-of-month month day-of-week). A failed update is
logged and retried on the next tick. Stop with Ctrl+C or SIGTERM.

Examples:
  importer schedule
  importer schedule --cron "0 18 * * 1-5" --run-now`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&cronSpec, "cron", "", "cron expression (default: schedule.cron)")
	scheduleCmd.Flags().BoolVar(&runNow, "run-now", false, "run one update immediately before waiting for the first tick")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	spec := cronSpec
	if spec == "" {
		spec = appConfig.Schedule.Cron
	}

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

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(ctx, updater, appConfig.Schedule.RunTimeout)
	if err := sched.Register(spec); err != nil {
		return err
	}

	log := logger.GetGlobalLogger().WithComponent("cli")
	if runNow {
		sched.RunNow()
	}

	sched.Start()
	fmt.Fprintf(cmd.OutOrStdout(), "Bond price updates scheduled (%s), next run at %s\n",
		spec, sched.Next().Format("2006-01-02 15:04:05"))

	<-ctx.Done()
	log.Info("Stopping scheduler")
	sched.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Scheduler stopped after %d runs\n", sched.Runs())
	return nil
}
