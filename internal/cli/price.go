package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"optionwatch/internal/models"
	"optionwatch/internal/pricing"
	"optionwatch/pkg/utils"
)

// contractFlags are shared by the pricing commands.
type contractFlags struct {
	underlying string
	option     string
	style      string
	strike     float64
	expiry     string
	multiplier float64

	spot     float64
	vol      float64
	rate     float64
	dividend float64
}

func (f *contractFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.underlying, "underlying", "SPY", "underlying symbol")
	cmd.Flags().StringVar(&f.option, "type", "CALL", "option type (CALL or PUT)")
	cmd.Flags().StringVar(&f.style, "style", "EUROPEAN", "exercise style (EUROPEAN or AMERICAN)")
	cmd.Flags().Float64Var(&f.strike, "strike", 0, "strike price")
	cmd.Flags().StringVar(&f.expiry, "expiry", "", "expiry date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&f.multiplier, "multiplier", 100, "underlying units per contract")
	cmd.Flags().Float64Var(&f.spot, "spot", 0, "spot price")
	cmd.Flags().Float64Var(&f.vol, "vol", 0.2, "annualized implied volatility")
	cmd.Flags().Float64Var(&f.rate, "rate", 0.05, "annualized risk-free rate")
	cmd.Flags().Float64Var(&f.dividend, "dividend", 0, "annualized continuous dividend yield")
	cmd.MarkFlagRequired("strike")
	cmd.MarkFlagRequired("expiry")
	cmd.MarkFlagRequired("spot")
}

func (f *contractFlags) build() (models.Contract, models.MarketSnapshot, error) {
	expiry, err := time.Parse("2006-01-02", f.expiry)
	if err != nil {
		return models.Contract{}, models.MarketSnapshot{}, err
	}
	c := models.Contract{
		Underlying: f.underlying,
		Type:       models.OptionType(strings.ToUpper(f.option)),
		Style:      models.ExerciseStyle(strings.ToUpper(f.style)),
		Strike:     f.strike,
		Expiry:     expiry.UTC().Add(16 * time.Hour), // expire at the close
		Multiplier: f.multiplier,
	}
	m := models.MarketSnapshot{
		Spot:          f.spot,
		RiskFreeRate:  f.rate,
		DividendYield: f.dividend,
		Vol:           f.vol,
		AsOf:          time.Now().UTC(),
	}
	return c, m, nil
}

func newPriceCmd(app *App) *cobra.Command {
	flags := &contractFlags{}
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single option contract",
		Long:  "Price a single option contract and report its per-contract greeks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			c, m, err := flags.build()
			if err != nil {
				return err
			}
			quote, err := pricing.Price(c, m)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"price":  quote.Price,
					"greeks": quote.Greeks,
				})
			}

			output.Bold("%s %s %.2f %s (%s)", c.Underlying, c.Type, c.Strike, flags.expiry, c.Style)
			output.Printf("  Price:  %s\n", utils.FormatUSD(quote.Price))
			output.Println()
			output.Bold("Greeks (per unit of underlying)")
			output.Printf("  Delta:  %s\n", utils.FormatGreek(quote.Greeks.Delta))
			output.Printf("  Gamma:  %s\n", utils.FormatGreek(quote.Greeks.Gamma))
			output.Printf("  Theta:  %s / day\n", utils.FormatGreek(quote.Greeks.Theta))
			output.Printf("  Vega:   %s\n", utils.FormatGreek(quote.Greeks.Vega))
			output.Printf("  Rho:    %s\n", utils.FormatGreek(quote.Greeks.Rho))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newImpliedVolCmd(app *App) *cobra.Command {
	flags := &contractFlags{}
	var observed float64
	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Solve implied volatility from an observed price",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			c, m, err := flags.build()
			if err != nil {
				return err
			}
			vol, err := pricing.ImpliedVol(c, m, observed)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]float64{"implied_vol": vol})
			}
			output.Printf("Implied vol: %s\n", utils.FormatVol(vol))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64Var(&observed, "price", 0, "observed market price")
	cmd.MarkFlagRequired("price")
	return cmd
}
