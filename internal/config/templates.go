package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# optionwatch configuration

[watcher]
update_interval_seconds = 60
# max_iterations = 0 means run until interrupted
max_iterations = 0
off_hours_evaluation = false
# journal_path = "~/.config/optionwatch/optionwatch.db"

[risk]
# A limit of 0 disables the check.
max_delta = 500.0
max_gamma = 50.0
max_theta = 1000.0
max_vega = 2000.0
max_scenario_loss = 25000.0

[logging]
level = "info"
console = true
file = true

[[symbols]]
symbol = "SPY"
venue = "US"
enabled = true
market_open = "09:30"
market_close = "16:00"

[[symbols]]
symbol = "BTC"
venue = "CRYPTO"
enabled = false

[[scenarios]]
name = "spot_down_10"
spot_pct = -10.0

[[scenarios]]
name = "spot_up_10"
spot_pct = 10.0

[[scenarios]]
name = "vol_up_5pts"
vol_shift = 0.05

[[scenarios]]
name = "crash"
spot_pct = -20.0
vol_shift = 0.15

[[scenarios]]
name = "week_decay"
days = 7
`

// createTemplateConfig writes a commented starter config so a first run
// leaves something editable behind.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0o644)
}
