package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database Database
	Ingest   Ingest
	Calendar Calendar
	Export   Export
	Accounts Accounts
	UI       UI
}

// Database holds sqlite settings.
type Database struct {
	Path string
}

// Ingest holds CSV loading settings.
type Ingest struct {
	CSVDir          string `mapstructure:"csv_dir"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

// Calendar bounds the generated date dimension. Both years inclusive.
type Calendar struct {
	StartYear int `mapstructure:"start_year"`
	EndYear   int `mapstructure:"end_year"`
}

// Export holds mart CSV export settings.
type Export struct {
	Dir string
}

// Accounts holds account dimension defaults. Types maps an account number
// to an account type for dim_account; unmapped accounts get DefaultType.
type Accounts struct {
	BankName    string            `mapstructure:"bank_name"`
	DefaultType string            `mapstructure:"default_type"`
	Types       map[string]string `mapstructure:"types"`
}

// UI holds dashboard presentation settings.
type UI struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
	DateFormat     string `mapstructure:"date_format"`
	Timezone       string
}

// Load reads configuration from file and env. Env var overrides use prefix KONTOFLOW_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "kontoflow", "kontoflow.db"))
	v.SetDefault("ingest.csv_dir", filepath.Join("data", "raw", "nordea"))
	v.SetDefault("ingest.default_currency", "DKK")
	v.SetDefault("calendar.start_year", 2020)
	v.SetDefault("calendar.end_year", 2030)
	v.SetDefault("export.dir", filepath.Join("data", "export"))
	v.SetDefault("accounts.bank_name", "Nordea")
	v.SetDefault("accounts.default_type", "checking")
	v.SetDefault("ui.currency_symbol", "kr")
	v.SetDefault("ui.date_format", "02/01")
	v.SetDefault("ui.timezone", "Europe/Copenhagen")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("KONTOFLOW_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "kontoflow"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("KONTOFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
