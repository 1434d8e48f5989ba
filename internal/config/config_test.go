package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
  host: 127.0.0.1
storage:
  data_dir: /var/lib/pokebattle
jwt:
  secret: from-yaml
log:
  level: debug
backup:
  bucket: saves
  interval: 15m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Storage.DataDir != "/var/lib/pokebattle" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if !cfg.Backup.Enabled() || cfg.Backup.Interval != 15*time.Minute {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	if cfg.Backup.Prefix != "backups" {
		t.Errorf("Backup.Prefix = %q, want default", cfg.Backup.Prefix)
	}
	if cfg.APNs.Enabled() {
		t.Error("APNs enabled without key_path")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: from-yaml\nserver:\n  port: 8080\n")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("JWT.Secret = %q, want from-env", cfg.JWT.Secret)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 || cfg.Storage.DataDir != "./data" || cfg.Log.Level != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no secret", "server:\n  port: 1\n"},
		{"bad yaml", "server: [\n"},
		{"apns without key id", "jwt:\n  secret: x\napns:\n  key_path: /k.p8\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}
