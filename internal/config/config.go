package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tradecal service.
type Config struct {
	Storage   Storage          `yaml:"storage"`
	Server    Server           `yaml:"server"`
	Defaults  Defaults         `yaml:"defaults"`
	Alpaca    Alpaca           `yaml:"alpaca"`
	Logging   Logging          `yaml:"logging"`
	Schedules []ScheduleConfig `yaml:"schedules"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Defaults controls the defaults document download lifecycle. Download uses
// the same syntax as the SCHEDULE_DOWNLOAD_DEFAULTS property: empty disables
// downloading, a URL downloads once, "url,period" downloads periodically and
// "auto" uses the built-in endpoint and period.
type Defaults struct {
	Download string `yaml:"download"`
}

// Alpaca holds credentials and endpoints for the Alpaca calendar API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScheduleConfig names a schedule the server should load at startup. Exactly
// one of Definition (an inline hours definition) or Key (a defaults document
// key such as "NYSE" or "STOCK.XNYS") must be set.
type ScheduleConfig struct {
	Name       string `yaml:"name"`
	Key        string `yaml:"key"`
	Definition string `yaml:"definition"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides. A .env file
// in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("SCHEDULE_DOWNLOAD_DEFAULTS"); v != "" {
		cfg.Defaults.Download = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
