package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points HOME and XDG_CONFIG_HOME at a temp dir so no real user
// config is read.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if want := filepath.Join(home, ".local", "share", "autopin", "autopin.db"); cfg.Database.Path != want {
		t.Errorf("database.path = %q, want %q", cfg.Database.Path, want)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none", cfg.File)
	}
}

func TestLoadDefaultFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "autopin")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 20000\nlog:\n  level: debug\n"), 0o644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 20000 || cfg.Log.Level != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if filepath.Base(cfg.File) != "config.yaml" {
		t.Errorf("File = %q", cfg.File)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(t.TempDir(), "autopin.yaml")
	os.WriteFile(path, []byte("database:\n  path: ~/pins.db\nfirefox:\n  profile: work\n"), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(home, "pins.db"); cfg.Database.Path != want {
		t.Errorf("database.path = %q, want %q", cfg.Database.Path, want)
	}
	if cfg.Firefox.Profile != "work" {
		t.Errorf("firefox.profile = %q", cfg.Firefox.Profile)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("AUTOPIN_SERVER_PORT", "19999")
	t.Setenv("AUTOPIN_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 19999 || cfg.Log.Level != "warn" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	tests := map[string]func(*Config){
		"port":  func(c *Config) { c.Server.Port = 70000 },
		"db":    func(c *Config) { c.Database.Path = "" },
		"level": func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range tests {
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestExpandTilde(t *testing.T) {
	home := isolate(t)
	got, _ := ExpandTilde("~/x/y")
	if got != filepath.Join(home, "x", "y") {
		t.Errorf("ExpandTilde = %q", got)
	}
	if got, _ := ExpandTilde("/abs"); got != "/abs" {
		t.Errorf("ExpandTilde(/abs) = %q", got)
	}
}
