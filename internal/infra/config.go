package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the vault service reads at startup.
// Sensitive role assignments can be overridden through environment
// variables after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Vault struct {
		Mode              string `yaml:"mode"` // "sim" or "host"
		Owner             string `yaml:"owner"`
		EscapeCaller      string `yaml:"escape_caller"`
		SecurityGuard     string `yaml:"security_guard"`
		RecoveryRecipient string `yaml:"recovery_recipient"`
		Marketplace       string `yaml:"marketplace"`
	} `yaml:"vault"`

	Feed struct {
		ListenAddr    string  `yaml:"listen_addr"`
		MaxClients    int     `yaml:"max_clients"`
		ConnPerSecond float64 `yaml:"conn_per_second"`
	} `yaml:"feed"`

	Oracle struct {
		Enabled         bool   `yaml:"enabled"`
		URL             string `yaml:"url"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
		AssetDecimals   int32  `yaml:"asset_decimals"` // native asset decimals for appraisal
	} `yaml:"oracle"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	mode := strings.ToLower(c.Vault.Mode)
	if mode != "sim" && mode != "host" {
		return fmt.Errorf("vault mode must be 'sim' or 'host', got %q", c.Vault.Mode)
	}

	if c.Vault.Owner == "" {
		return fmt.Errorf("vault owner address is required")
	}
	if c.Vault.RecoveryRecipient == "" {
		return fmt.Errorf("vault recovery recipient is required")
	}

	if c.Feed.MaxClients <= 0 {
		return fmt.Errorf("feed max_clients must be positive")
	}
	if c.Feed.ConnPerSecond <= 0 {
		return fmt.Errorf("feed conn_per_second must be positive")
	}

	if c.Oracle.Enabled {
		if c.Oracle.URL == "" {
			return fmt.Errorf("oracle url is required when oracle is enabled")
		}
		if c.Oracle.PollIntervalSec <= 0 {
			return fmt.Errorf("oracle poll interval must be positive")
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Vault.Mode == "" {
		cfg.Vault.Mode = "sim"
	}
	if cfg.Vault.EscapeCaller == "" {
		// The owner doubles as escape caller until explicitly reassigned.
		cfg.Vault.EscapeCaller = cfg.Vault.Owner
	}
	if cfg.Feed.ListenAddr == "" {
		cfg.Feed.ListenAddr = "localhost:8787"
	}
	if cfg.Feed.MaxClients == 0 {
		cfg.Feed.MaxClients = 16
	}
	if cfg.Feed.ConnPerSecond == 0 {
		cfg.Feed.ConnPerSecond = 2
	}
	if cfg.Oracle.AssetDecimals == 0 {
		cfg.Oracle.AssetDecimals = 18
	}
}

// overrideWithEnv lets deployment environments override role assignments
// without touching the config file.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("VAULT_MODE"); v != "" {
		cfg.Vault.Mode = v
	}
	if v := os.Getenv("VAULT_OWNER"); v != "" {
		cfg.Vault.Owner = v
	}
	if v := os.Getenv("VAULT_ESCAPE_CALLER"); v != "" {
		cfg.Vault.EscapeCaller = v
	}
	if v := os.Getenv("VAULT_RECOVERY_RECIPIENT"); v != "" {
		cfg.Vault.RecoveryRecipient = v
	}
	if v := os.Getenv("VAULT_FEED_ADDR"); v != "" {
		cfg.Feed.ListenAddr = v
	}
}
