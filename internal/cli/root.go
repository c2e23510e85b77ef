// Package cli implements debtctl, an offline front end to the reminder and
// payoff engines that works on a YAML snapshot instead of the database.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dan9191/loan-reminders/internal/reminder"
	"github.com/Dan9191/loan-reminders/internal/service"
)

type options struct {
	snapshot string
	state    string
	asOf     string
	keyRate  float64
	logLevel string
}

// env is what every subcommand runs against
type env struct {
	store *FileStore
	svc   *service.Service
	now   time.Time
}

// staticRate answers key rate lookups with a fixed value
type staticRate float64

func (r staticRate) GetKeyRate(context.Context) (float64, error) {
	return float64(r), nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "debtctl",
		Short: "Loan balances, payoff plans and payment reminders from a YAML snapshot",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.init(opts, cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.snapshot, "snapshot", "f", "debts.yaml", "snapshot file with loans and transactions")
	flags.StringVar(&opts.state, "state", "paid.yaml", "file holding paid marks")
	flags.StringVar(&opts.asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD), default today")
	flags.Float64Var(&opts.keyRate, "key-rate", 0, "annual rate in percent used for loans without a known rate")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(
		newBalanceCommand(e),
		newPlanCommand(e),
		newPatternsCommand(e),
		newRemindersCommand(e),
		newPayCommand(e),
		newUnpayCommand(e),
		newCleanupCommand(e),
		newCustomCommand(e),
	)

	return rootCmd
}

func (e *env) init(opts *options, logOut io.Writer) error {
	logger := logrus.New()
	logger.SetOutput(logOut)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
	}
	logger.SetLevel(level)

	e.now = time.Now()
	if opts.asOf != "" {
		if e.now, err = parseDate(opts.asOf); err != nil {
			return fmt.Errorf("--as-of: %w", err)
		}
	}

	store, err := OpenFileStore(opts.snapshot, opts.state)
	if err != nil {
		return err
	}
	e.store = store

	var rates service.KeyRateSource
	if opts.keyRate > 0 {
		rates = staticRate(opts.keyRate)
	}
	scheduler := reminder.NewScheduler(reminder.DefaultConfig(), logger)
	e.svc = service.NewService(store, rates, scheduler, logger)
	return nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
