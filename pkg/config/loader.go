package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veesix-networks/wireprobe/internal/probe"
	"github.com/veesix-networks/wireprobe/pkg/dhcp"
	"github.com/veesix-networks/wireprobe/pkg/osutil"
)

const DefaultPath = "/etc/wireprobe/config.yaml"

var DefaultNetworkWaitInterval = 10 * time.Second

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Platform == "" {
		c.Platform = osutil.VariantAuto
	}
	if c.DHCP.Timeout == 0 {
		c.DHCP.Timeout = dhcp.DefaultTimeout
	}
	if len(c.DHCP.Schedule) == 0 {
		c.DHCP.Schedule = probe.DefaultSchedule()
	}
	if c.DHCP.NetworkWaitInterval == 0 {
		c.DHCP.NetworkWaitInterval = DefaultNetworkWaitInterval
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}

	if c.Platform != osutil.VariantAuto {
		if _, err := osutil.LookupVariant(c.Platform); err != nil {
			return fmt.Errorf("platform: %w (known: %s)", err, strings.Join(osutil.VariantNames(), ", "))
		}
	}

	if c.DHCP.Timeout < 0 {
		return fmt.Errorf("dhcp.timeout: must be positive, got %s", c.DHCP.Timeout)
	}
	for i, d := range c.DHCP.Schedule {
		if d < 0 {
			return fmt.Errorf("dhcp.schedule[%d]: negative wait %s", i, d)
		}
	}
	if c.DHCP.NetworkWaitInterval < 0 {
		return fmt.Errorf("dhcp.network_wait_interval: must be positive, got %s", c.DHCP.NetworkWaitInterval)
	}

	return nil
}
