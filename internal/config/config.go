// Package config handles domcensus configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domcensus/census"
)

// Config is the top-level domcensus configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Browser   BrowserConfig   `yaml:"browser"`
	Display   DisplayConfig   `yaml:"display"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Export    ExportConfig    `yaml:"export"`
	HTTP      HTTPConfig      `yaml:"http"`
	LogLevel  string          `yaml:"log_level"`
}

// SourceConfig selects the document and the element to census.
type SourceConfig struct {
	HTML     string `yaml:"html"`     // static HTML file
	URL      string `yaml:"url"`      // live page
	Selector string `yaml:"selector"` // element to count under
	Watch    bool   `yaml:"watch"`    // re-census when the HTML file changes
}

// BrowserConfig controls the Chrome instance used for live pages.
type BrowserConfig struct {
	Remote           string          `yaml:"remote"`  // DevTools URL; empty launches a local Chrome
	Stealth          string          `yaml:"stealth"` // headless | headful
	Viewport         census.Viewport `yaml:"viewport"`
	ResourceBlocking []string        `yaml:"resource_blocking"`
	NavigateTimeout  time.Duration   `yaml:"navigate_timeout"`
	Attach           bool            `yaml:"attach"` // reuse an open tab with the same URL
}

// DisplayConfig controls table rendering.
type DisplayConfig struct {
	Locale string `yaml:"locale"`
}

// ClipboardConfig lists the copy methods to try, in order.
type ClipboardConfig struct {
	Methods []string `yaml:"methods"` // system | page | osc52 | manual
}

// ExportConfig controls where exported reports go.
type ExportConfig struct {
	Dir   string       `yaml:"dir"`
	Sinks []SinkConfig `yaml:"sinks"`
}

// SinkConfig defines an export backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | file | sqlite
	URL  string `yaml:"url"`  // for webhook
	Path string `yaml:"path"` // for file (directory) and sqlite (database)
}

// HTTPConfig controls the panel server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that cannot work together.
func (c *Config) Validate() error {
	if c.Source.HTML != "" && c.Source.URL != "" {
		return fmt.Errorf("config: source.html and source.url are mutually exclusive")
	}
	if c.Source.Watch && c.Source.URL != "" {
		return fmt.Errorf("config: source.watch only applies to source.html")
	}
	switch c.Browser.Stealth {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: browser.stealth %q: want headless or headful", c.Browser.Stealth)
	}
	for _, m := range c.Clipboard.Methods {
		switch m {
		case "system", "page", "osc52", "manual":
		default:
			return fmt.Errorf("config: unknown clipboard method %q", m)
		}
	}
	for _, s := range c.Export.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: webhook sink needs url")
			}
		case "file", "sqlite":
			if s.Path == "" {
				return fmt.Errorf("config: %s sink needs path", s.Type)
			}
		default:
			return fmt.Errorf("config: unknown sink type %q", s.Type)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Source.Selector == "" {
		c.Source.Selector = "body"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.Viewport.Width <= 0 {
		c.Browser.Viewport.Width = 1280
	}
	if c.Browser.Viewport.Height <= 0 {
		c.Browser.Viewport.Height = 800
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"fonts", "media"}
	}
	if c.Display.Locale == "" {
		c.Display.Locale = "en"
	}
	if len(c.Clipboard.Methods) == 0 {
		c.Clipboard.Methods = []string{"system", "page", "osc52", "manual"}
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:8470"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
