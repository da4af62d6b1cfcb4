package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"optionwatch/internal/models"
	"optionwatch/internal/payoff"
	"optionwatch/internal/pricing"
	"optionwatch/pkg/utils"
)

func newPayoffCmd(app *App) *cobra.Command {
	var (
		positionsPath string
		strategyID    string
		low, high     float64
		samples       int
		mark          bool
		dense         bool
		spot          float64
		vol           float64
		rate          float64
		dividend      float64
	)

	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Evaluate a strategy payoff curve",
		Long: `Evaluate a strategy's P&L curve over a price range, either at
expiration (intrinsic value) or marked to market, and report the
curve summary with aggregated greeks, max profit/loss and breakevens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			lg, err := loadPositions(positionsPath)
			if err != nil {
				return err
			}
			strategy, err := lg.Strategy(strategyID)
			if err != nil {
				return err
			}

			m := models.MarketSnapshot{
				Spot:          spot,
				RiskFreeRate:  rate,
				DividendYield: dividend,
				Vol:           vol,
				AsOf:          time.Now().UTC(),
			}
			if low == 0 && high == 0 {
				low, high = defaultRange(strategy, spot)
			}

			mode := payoff.AtExpiration
			if mark {
				mode = payoff.MarkToMarket
			}
			req := payoff.Request{
				Low:              low,
				High:             high,
				Samples:          samples,
				Mode:             mode,
				DenseNearStrikes: dense,
				Vols:             pricing.FlatVol(vol),
			}

			summary, err := payoff.Summarize(strategy, m, req)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(summary)
			}
			printSummary(output, strategy, summary, mode)
			return nil
		},
	}

	cmd.Flags().StringVar(&positionsPath, "positions", "", "positions file (TOML)")
	cmd.Flags().StringVar(&strategyID, "strategy", "", "strategy ID within the positions file")
	cmd.Flags().Float64Var(&low, "low", 0, "low end of the price range (default: spot -30%)")
	cmd.Flags().Float64Var(&high, "high", 0, "high end of the price range (default: spot +30%)")
	cmd.Flags().IntVar(&samples, "samples", 101, "number of uniform samples")
	cmd.Flags().BoolVar(&mark, "mark", false, "mark to market instead of expiration intrinsic")
	cmd.Flags().BoolVar(&dense, "dense", true, "add extra samples near leg strikes")
	cmd.Flags().Float64Var(&spot, "spot", 0, "current spot price")
	cmd.Flags().Float64Var(&vol, "vol", 0.2, "annualized implied volatility")
	cmd.Flags().Float64Var(&rate, "rate", 0.05, "annualized risk-free rate")
	cmd.Flags().Float64Var(&dividend, "dividend", 0, "annualized continuous dividend yield")
	cmd.MarkFlagRequired("positions")
	cmd.MarkFlagRequired("strategy")
	cmd.MarkFlagRequired("spot")
	return cmd
}

// defaultRange brackets the spot and every leg strike with 30% headroom.
func defaultRange(s models.Strategy, spot float64) (float64, float64) {
	lo, hi := spot, spot
	for _, leg := range s.Legs {
		lo = math.Min(lo, leg.Contract.Strike)
		hi = math.Max(hi, leg.Contract.Strike)
	}
	return lo * 0.7, hi * 1.3
}

func printSummary(output *Output, s models.Strategy, summary payoff.Summary, mode payoff.Mode) {
	label := "at expiration"
	if mode == payoff.MarkToMarket {
		label = "marked to market"
	}
	output.Bold("%s (%s, %s)", s.ID, s.Type, label)

	table := NewTable(output, "Leg", "Qty", "Strike", "Expiry", "Entry")
	for _, leg := range s.Legs {
		table.AddRow(
			fmt.Sprintf("%s %s", leg.Contract.Underlying, leg.Contract.Type),
			utils.FormatQuantity(int64(leg.Quantity)),
			fmt.Sprintf("%.2f", leg.Contract.Strike),
			leg.Contract.Expiry.Format("2006-01-02"),
			utils.FormatUSD(leg.EntryPrice),
		)
	}
	table.Render()
	output.Println()

	output.Printf("  Range:      %.2f .. %.2f (%d points)\n",
		summary.Curve.Low, summary.Curve.High, len(summary.Curve.Points))
	output.Printf("  Max Profit: %s\n", output.FormatPnL(summary.MaxProfit))
	output.Printf("  Max Loss:   %s\n", output.FormatPnL(summary.MaxLoss))
	if len(summary.Breakevens) == 0 {
		output.Printf("  Breakevens: none in range\n")
	} else {
		output.Printf("  Breakevens:")
		for _, be := range summary.Breakevens {
			output.Printf(" %.2f", be)
		}
		output.Println()
	}
	output.Println()

	output.Bold("Aggregated Greeks")
	output.Printf("  Delta: %s  Gamma: %s  Theta: %s/day  Vega: %s  Rho: %s\n",
		utils.FormatGreek(summary.Greeks.Delta),
		utils.FormatGreek(summary.Greeks.Gamma),
		utils.FormatGreek(summary.Greeks.Theta),
		utils.FormatGreek(summary.Greeks.Vega),
		utils.FormatGreek(summary.Greeks.Rho))
}
