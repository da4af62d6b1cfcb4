package cli

import (
	"time"

	"github.com/spf13/cobra"

	"optionwatch/internal/errors"
	"optionwatch/internal/greeks"
	"optionwatch/internal/models"
	"optionwatch/internal/pricing"
	"optionwatch/pkg/utils"
)

func newGreeksCmd(app *App) *cobra.Command {
	var (
		positionsPath string
		quotesPath    string
	)

	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Aggregate position greeks per strategy and portfolio",
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
			type row struct {
				ID         string              `json:"id"`
				Type       models.StrategyType `json:"type"`
				Underlying string              `json:"underlying"`
				Greeks     models.GreeksVector `json:"greeks"`
			}
			rows := make([]row, 0, len(snap.Strategies))
			var portfolio models.GreeksVector

			for _, s := range snap.Strategies {
				m, ok := quotes.quotes[s.Underlying()]
				if !ok {
					return errors.Wrapf(errors.ErrQuoteMissing, "symbol %s", s.Underlying())
				}
				perLeg := make([]models.GreeksVector, len(s.Legs))
				for i, leg := range s.Legs {
					q, err := pricing.Price(leg.Contract, m)
					if err != nil {
						return errors.Wrapf(err, "pricing %s", leg.Contract.Key())
					}
					perLeg[i] = q.Greeks
				}
				agg, err := greeks.Aggregate(s, perLeg)
				if err != nil {
					return err
				}
				rows = append(rows, row{ID: s.ID, Type: s.Type, Underlying: s.Underlying(), Greeks: agg})
				portfolio = portfolio.Add(agg)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"strategies": rows,
					"portfolio":  portfolio,
				})
			}

			table := NewTable(output, "Strategy", "Type", "Underlying", "Delta", "Gamma", "Theta/d", "Vega", "Rho")
			for _, r := range rows {
				table.AddRow(r.ID, string(r.Type), r.Underlying,
					utils.FormatGreek(r.Greeks.Delta),
					utils.FormatGreek(r.Greeks.Gamma),
					utils.FormatGreek(r.Greeks.Theta),
					utils.FormatGreek(r.Greeks.Vega),
					utils.FormatGreek(r.Greeks.Rho))
			}
			table.Render()
			output.Println()

			output.Bold("Portfolio")
			output.Printf("  Delta: %s  Gamma: %s  Theta: %s/day  Vega: %s  Rho: %s\n",
				utils.FormatGreek(portfolio.Delta),
				utils.FormatGreek(portfolio.Gamma),
				utils.FormatGreek(portfolio.Theta),
				utils.FormatGreek(portfolio.Vega),
				utils.FormatGreek(portfolio.Rho))
			return nil
		},
	}

	cmd.Flags().StringVar(&positionsPath, "positions", "", "positions file (TOML)")
	cmd.Flags().StringVar(&quotesPath, "quotes", "", "quotes file (TOML)")
	cmd.MarkFlagRequired("positions")
	cmd.MarkFlagRequired("quotes")
	return cmd
}
