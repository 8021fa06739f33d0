package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jw2epub/internal/site"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.ServerURL != "https://jungle.world" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.IndexPath != "/inhalt" {
		t.Errorf("IndexPath = %q", cfg.IndexPath)
	}
	if cfg.CacheDir != "cache" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"no host", func(c *Config) { c.ServerURL = "https://" }, false},
		{"garbage url", func(c *Config) { c.ServerURL = "::" }, false},
		{"empty cache dir", func(c *Config) { c.CacheDir = "" }, false},
		{"unknown site", func(c *Config) { c.Site = "myspace" }, false},
		{"legacy site", func(c *Config) { c.Site = "legacy" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantOK && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Fatal("Validate passed, want error")
			}
		})
	}
}

func TestValidateUnknownSiteSentinel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Site = "myspace"
	if err := cfg.Validate(); !errors.Is(err, site.ErrUnknownSite) {
		t.Fatalf("err = %v, want ErrUnknownSite", err)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jw2epub.yaml")
	content := `
server: https://staging.jungle.example
site: legacy
cache: /tmp/jw-cache
auth:
  user: abo
  password: geheim
metrics:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	cfg := DefaultConfig()
	fc.Apply(&cfg)
	if cfg.ServerURL != "https://staging.jungle.example" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.Site != "legacy" || cfg.CacheDir != "/tmp/jw-cache" {
		t.Errorf("Site/CacheDir = %q/%q", cfg.Site, cfg.CacheDir)
	}
	if cfg.Username != "abo" || cfg.Password != "geheim" {
		t.Errorf("credentials not applied")
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	// Untouched fields keep their defaults.
	if cfg.IndexPath != "/inhalt" || cfg.OutputDir != "." {
		t.Errorf("defaults clobbered: %q %q", cfg.IndexPath, cfg.OutputDir)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jw2epub.json")
	if err := os.WriteFile(path, []byte(`{"output": "/books", "verbose": true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	cfg := DefaultConfig()
	fc.Apply(&cfg)
	if cfg.OutputDir != "/books" || !cfg.Verbose {
		t.Errorf("json not applied: %+v", cfg)
	}
}

func TestLoadConfigFileBad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
