package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"optionwatch/internal/risk"
	"optionwatch/internal/store"
	"optionwatch/pkg/utils"
)

func newRiskCmd(app *App) *cobra.Command {
	var (
		positionsPath string
		quotesPath    string
	)

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Evaluate portfolio risk against scenarios and limits",
		Long: `Evaluate the full position ledger: base mark, aggregated greeks per
underlying, the configured stress scenarios, and any limit breaches.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			lg, err := loadPositions(positionsPath)
			if err != nil {
				return err
			}
			quotes, err := loadQuotes(quotesPath, time.Now().UTC())
			if err != nil {
				return err
			}

			snap := lg.Snapshot()
			mkt := risk.Market{AsOf: time.Now().UTC(), Quotes: quotes.quotes}
			report, err := risk.Evaluate(snap, mkt, app.Config.ScenarioSet(), app.Config.Limits())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Bold("Portfolio Risk (ledger v%d, %d strategies)", snap.Version, len(snap.Strategies))
			output.Printf("  Mark:  %s\n", utils.FormatUSD(report.PortfolioMark))
			output.Printf("  Delta: %s  Gamma: %s  Theta: %s/day  Vega: %s  Rho: %s\n",
				utils.FormatGreek(report.Greeks.Delta),
				utils.FormatGreek(report.Greeks.Gamma),
				utils.FormatGreek(report.Greeks.Theta),
				utils.FormatGreek(report.Greeks.Vega),
				utils.FormatGreek(report.Greeks.Rho))
			output.Println()

			if len(report.Scenarios) > 0 {
				output.Bold("Scenarios")
				table := NewTable(output, "Scenario", "P&L")
				for _, sc := range report.Scenarios {
					table.AddRow(sc.Name, output.FormatPnL(sc.PnL))
				}
				table.Render()
				output.Println()
			}

			if report.Breached() {
				output.Bold("Breaches")
				for _, br := range report.Breaches {
					where := br.Limit
					if br.Scenario != "" {
						where = fmt.Sprintf("%s (%s)", br.Limit, br.Scenario)
					}
					output.Warning("  %s: %.1f exceeds %.1f", where, br.Value, br.Max)
				}
			} else {
				output.Success("✓ All limits respected")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&positionsPath, "positions", "", "positions file (TOML)")
	cmd.Flags().StringVar(&quotesPath, "quotes", "", "quotes file (TOML)")
	cmd.MarkFlagRequired("positions")
	cmd.MarkFlagRequired("quotes")

	cmd.AddCommand(newRiskHistoryCmd(app))
	return cmd
}

func newRiskHistoryCmd(app *App) *cobra.Command {
	var (
		symbol       string
		limit        int
		breachedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled risk reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Journal == nil {
				return fmt.Errorf("report journal unavailable")
			}

			records, err := app.Journal.GetReports(cmd.Context(), store.ReportFilter{
				Symbol:       symbol,
				BreachedOnly: breachedOnly,
				Limit:        limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}
			if len(records) == 0 {
				output.Dim("No reports found.")
				return nil
			}

			table := NewTable(output, "As Of", "Symbol", "Mark", "Delta", "Theta", "Breached")
			for _, rec := range records {
				breached := ""
				if rec.Breached {
					breached = output.ColoredString(ColorRed, "yes")
				}
				table.AddRow(
					rec.Report.AsOf.Format("2006-01-02 15:04"),
					rec.Symbol,
					utils.FormatUSD(rec.Report.PortfolioMark),
					utils.FormatGreek(rec.Report.Greeks.Delta),
					utils.FormatGreek(rec.Report.Greeks.Theta),
					breached,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	cmd.Flags().BoolVar(&breachedOnly, "breached", false, "only reports with breaches")
	return cmd
}
