package internal

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.Interval() != 350*time.Millisecond {
		t.Fatalf("Interval() = %v", cfg.Interval())
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "config.toml")
	content := `
extensions = ["jar", "aar"]
nested = true
delimiter = ";"
interval_ms = 0
log_level = "debug"
`
	if err := os.WriteFile(fp, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(fp)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Extensions, []string{"jar", "aar"}) || !cfg.Nested || cfg.Delimiter != ";" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.CaseSensitive {
		t.Error("unset keys keep their default")
	}
	if cfg.IntervalMS != 350 {
		t.Errorf("non-positive interval should fall back, got %d", cfg.IntervalMS)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "bad.toml")
	_ = os.WriteFile(fp, []byte("extensions = [\n"), 0644)
	_, err := LoadConfig(fp)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	if p := DefaultConfigPath(); filepath.Base(p) != "config.toml" || filepath.Base(filepath.Dir(p)) != "zipsearch" {
		t.Fatalf("unexpected path %q", p)
	}
}
