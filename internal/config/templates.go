package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# moneybot configuration

[engine]
# Timezone for time-of-day category heuristics and the daily digest
timezone = "Local"
# Upper bound on a single market quote lookup
quote_timeout = "5s"
# How many recent ledger entries the history predictor scans
history_window = 50
# Link returned for the "website" command
website_url = "https://moneybot.example.com"

[alerts]
# How often active price alerts are evaluated
interval = "1m"
# Maximum concurrent quote lookups per tick
concurrency = 5
# Thresholds (percent) used when seeding default alerts for a holding
default_daily_change = 5.0
default_stop_profit = 20.0
default_stop_loss = 10.0

[digest]
enabled = true
# Local time of the daily digest
at = "21:00"

[storage]
# SQLite database path (default: <config dir>/moneybot.db)
path = ""

[market]
# Quote provider: "kite" or "static"
provider = "kite"
exchange = "NSE"
retries = 2
# Consecutive failures before the gateway circuit opens
failure_threshold = 5
cooldown = "30s"

[notifications]
enabled = false

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
api_base = "https://api.telegram.org"

[metrics]
enabled = true
listen = ":9464"

[logging]
level = "info"
console = true
file = true
`

const credentialsTemplate = `# moneybot credentials
# WARNING: Keep this file secure! Do not commit to version control.

[kite]
api_key = ""
access_token = ""

[telegram]
bot_token = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return fmt.Errorf("credentials file not found, created template at %s", path)
}
