// Package config loads the switch configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zberg/go-adcp/pkg/adcp"
)

const (
	DefaultScanInterval   = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

	ErrNoSwitches = errors.New("no switches configured")
)

// Config is the root of the configuration file.
type Config struct {
	ScanInterval   time.Duration     `yaml:"scan_interval"`
	ConnectTimeout time.Duration     `yaml:"connect_timeout"`
	ReadTimeout    time.Duration     `yaml:"read_timeout"`
	Switches       map[string]Switch `yaml:"switches"`
}

// Switch configures one projector switch.
type Switch struct {
	Resource   string `yaml:"resource"`
	Port       int    `yaml:"port"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	CommandOn  string `yaml:"command_on"`
	CommandOff string `yaml:"command_off"`
}

// DeviceConfig converts the switch entry for the adcp package.
func (s Switch) DeviceConfig() adcp.DeviceConfig {
	return adcp.DeviceConfig{
		Host:       s.Resource,
		Port:       s.Port,
		Password:   s.Password,
		Name:       s.Name,
		CommandOn:  s.CommandOn,
		CommandOff: s.CommandOff,
	}
}

// Load reads the YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = DefaultScanInterval
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	for slug, sw := range cfg.Switches {
		if sw.Port == 0 {
			sw.Port = adcp.DefaultPort
		}
		if sw.Name == "" {
			sw.Name = adcp.DefaultName
		}
		if sw.CommandOn == "" {
			sw.CommandOn = adcp.DefaultCommand
		}
		if sw.CommandOff == "" {
			sw.CommandOff = adcp.DefaultCommand
		}
		cfg.Switches[slug] = sw
	}
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.ScanInterval < 0 || cfg.ConnectTimeout < 0 || cfg.ReadTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if len(cfg.Switches) == 0 {
		return ErrNoSwitches
	}

	for _, slug := range cfg.Slugs() {
		if !slugPattern.MatchString(slug) {
			return fmt.Errorf("switch %q: name must match %s", slug, slugPattern)
		}
		if err := cfg.Switches[slug].DeviceConfig().Validate(); err != nil {
			return fmt.Errorf("switch %q: %w", slug, err)
		}
	}
	return nil
}

// Slugs returns the switch keys in sorted order.
func (c *Config) Slugs() []string {
	slugs := make([]string, 0, len(c.Switches))
	for slug := range c.Switches {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
