package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
app:
  name: escrow-go
  version: "1.0.0"
vault:
  owner: "0xOWNER"
  recovery_recipient: "0xRECOVERY"
`

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Vault.Mode != "sim" {
		t.Errorf("mode = %q, want sim", cfg.Vault.Mode)
	}
	if cfg.Vault.EscapeCaller != "0xOWNER" {
		t.Errorf("escape caller = %q, want owner fallback", cfg.Vault.EscapeCaller)
	}
	if cfg.Feed.ListenAddr != "localhost:8787" {
		t.Errorf("feed addr = %q", cfg.Feed.ListenAddr)
	}
	if cfg.Feed.MaxClients != 16 {
		t.Errorf("max clients = %d, want 16", cfg.Feed.MaxClients)
	}
	if cfg.Oracle.AssetDecimals != 18 {
		t.Errorf("asset decimals = %d, want 18", cfg.Oracle.AssetDecimals)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	t.Setenv("VAULT_OWNER", "0xENV_OWNER")
	t.Setenv("VAULT_FEED_ADDR", "0.0.0.0:9999")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Vault.Owner != "0xENV_OWNER" {
		t.Errorf("owner = %q, want env override", cfg.Vault.Owner)
	}
	if cfg.Feed.ListenAddr != "0.0.0.0:9999" {
		t.Errorf("feed addr = %q, want env override", cfg.Feed.ListenAddr)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing owner", `
vault:
  recovery_recipient: "0xRECOVERY"
`},
		{"missing recovery recipient", `
vault:
  owner: "0xOWNER"
`},
		{"bad mode", `
vault:
  mode: "live"
  owner: "0xOWNER"
  recovery_recipient: "0xRECOVERY"
`},
		{"oracle enabled without url", `
vault:
  owner: "0xOWNER"
  recovery_recipient: "0xRECOVERY"
oracle:
  enabled: true
  poll_interval_sec: 60
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
