package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"optionwatch/internal/errors"
	"optionwatch/internal/notify"
	"optionwatch/internal/watcher"
)

func newWatchCmd(app *App) *cobra.Command {
	var (
		positionsPath string
		quotesPath    string
		once          bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the position ledger on the configured interval",
		Long: `Run the evaluation cycle over every enabled symbol: price the ledger,
run the stress scenarios, journal the reports and surface breaches.
Runs until interrupted unless --once or max_iterations is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			lg, err := loadPositions(positionsPath)
			if err != nil {
				return err
			}

			if quotesPath == "" {
				return fmt.Errorf("a quotes file is required until a live data source is configured")
			}
			quotes, err := loadQuotes(quotesPath, time.Now().UTC())
			if err != nil {
				return err
			}

			opts := []watcher.Option{
				watcher.WithNotifier(notify.NewTerminal(os.Stdout)),
			}
			if app.Journal != nil {
				opts = append(opts, watcher.WithJournal(app.Journal))
			}

			w := watcher.New(app.Config, lg, quotes, app.Logger, opts...)

			if once {
				results, err := w.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				for _, res := range results {
					if res.Skipped {
						output.Dim("%s: skipped (%s)", res.Symbol, res.State)
						continue
					}
					output.Info("%s: mark %s, %d breaches",
						res.Symbol, output.FormatPnL(res.Report.PortfolioMark), len(res.Report.Breaches))
				}
				return nil
			}

			output.Info("Watching %d symbols every %ds (Ctrl-C to stop)",
				len(app.Config.EnabledSymbols()), app.Config.Watcher.UpdateIntervalSeconds)
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&positionsPath, "positions", "", "positions file (TOML)")
	cmd.Flags().StringVar(&quotesPath, "quotes", "", "quotes file (TOML)")
	cmd.Flags().BoolVar(&once, "once", false, "run a single evaluation cycle and exit")
	cmd.MarkFlagRequired("positions")
	return cmd
}
