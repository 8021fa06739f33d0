package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Nested sections map
// naturally to flags; every field is optional and overrides the default.
type FileConfig struct {
	Server string `yaml:"server" json:"server"`
	Index  string `yaml:"index" json:"index"`
	Site   string `yaml:"site" json:"site"`

	Cache  string `yaml:"cache" json:"cache"`
	Output string `yaml:"output" json:"output"`
	PDF    string `yaml:"pdf" json:"pdf"`

	Auth struct {
		User     string `yaml:"user" json:"user"`
		Password string `yaml:"password" json:"password"`
	} `yaml:"auth" json:"auth"`

	UserAgent string `yaml:"userAgent" json:"userAgent"`
	Verbose   bool   `yaml:"verbose" json:"verbose"`

	Metrics struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"metrics" json:"metrics"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON.
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Apply copies the file's non-empty values onto cfg.
func (fc FileConfig) Apply(cfg *Config) {
	if fc.Server != "" {
		cfg.ServerURL = fc.Server
	}
	if fc.Index != "" {
		cfg.IndexPath = fc.Index
	}
	if fc.Site != "" {
		cfg.Site = fc.Site
	}
	if fc.Cache != "" {
		cfg.CacheDir = fc.Cache
	}
	if fc.Output != "" {
		cfg.OutputDir = fc.Output
	}
	if fc.PDF != "" {
		cfg.PDFPath = fc.PDF
	}
	if fc.Auth.User != "" {
		cfg.Username = fc.Auth.User
	}
	if fc.Auth.Password != "" {
		cfg.Password = fc.Auth.Password
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	if fc.Metrics.Addr != "" {
		cfg.MetricsAddr = fc.Metrics.Addr
	}
}
