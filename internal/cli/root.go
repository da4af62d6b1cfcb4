// Package cli provides the command-line interface for the analytics engine.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"optionwatch/internal/config"
	"optionwatch/internal/logging"
	"optionwatch/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Journal store.ReportJournal
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	journal, err := store.NewSQLiteJournal(cfg.Watcher.JournalPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open report journal, history features unavailable")
	} else {
		app.Journal = journal
	}

	rootCmd := &cobra.Command{
		Use:   "optionwatch",
		Short: "Options position analytics and risk watcher",
		Long: `optionwatch prices option contracts, aggregates portfolio greeks,
evaluates payoff curves and stress scenarios, and watches a position
ledger against configured risk limits.

Use 'optionwatch help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/optionwatch)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newImpliedVolCmd(app))
	rootCmd.AddCommand(newGreeksCmd(app))
	rootCmd.AddCommand(newPayoffCmd(app))
	rootCmd.AddCommand(newRiskCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("optionwatch v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open configuration file in editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			output.Info("Configuration file: %s", filepath.Join(config.DefaultConfigDir(), "config.toml"))
			output.Println("Edit this file to change settings.")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Watcher Configuration")
	output.Printf("  Interval:        %ds\n", cfg.Watcher.UpdateIntervalSeconds)
	output.Printf("  Max Iterations:  %d\n", cfg.Watcher.MaxIterations)
	output.Printf("  Off Hours:       %v\n", cfg.Watcher.OffHoursEvaluation)
	output.Printf("  Journal:         %s\n", cfg.Watcher.JournalPath)
	output.Println()

	output.Bold("Risk Limits (0 = disabled)")
	output.Printf("  Max |Delta|:     %.1f\n", cfg.Risk.MaxDelta)
	output.Printf("  Max |Gamma|:     %.1f\n", cfg.Risk.MaxGamma)
	output.Printf("  Max |Theta|:     %.1f\n", cfg.Risk.MaxTheta)
	output.Printf("  Max |Vega|:      %.1f\n", cfg.Risk.MaxVega)
	output.Printf("  Max Scen Loss:   %.1f\n", cfg.Risk.MaxScenarioLoss)
	output.Println()

	output.Bold("Symbols")
	for _, s := range cfg.Symbols {
		state := "disabled"
		if s.Enabled {
			state = "enabled"
		}
		output.Printf("  %-8s %-8s %s\n", s.Symbol, s.Venue, state)
	}
	output.Println()

	output.Bold("Scenarios")
	for _, sc := range cfg.Scenarios {
		output.Printf("  %-16s spot %+.1f%%  vol %+.3f  days %d\n", sc.Name, sc.SpotPct, sc.VolShift, sc.Days)
	}
	return nil
}
