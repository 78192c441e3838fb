package config

import "time"

type Config struct {
	Logging   Logging `yaml:"logging"`
	Platform  string  `yaml:"platform,omitempty"`
	Interface string  `yaml:"interface,omitempty"`
	DHCP      DHCP    `yaml:"dhcp"`
	Routes    Routes  `yaml:"routes"`
	Metrics   Metrics `yaml:"metrics,omitempty"`
}

type Logging struct {
	Format     string            `yaml:"format"`
	Level      string            `yaml:"level"`
	Components map[string]string `yaml:"components,omitempty"`
}

type DHCP struct {
	Timeout             time.Duration   `yaml:"timeout,omitempty"`
	Schedule            []time.Duration `yaml:"schedule,omitempty"`
	WaitForNetwork      bool            `yaml:"wait_for_network,omitempty"`
	NetworkWaitInterval time.Duration   `yaml:"network_wait_interval,omitempty"`
}

type Routes struct {
	// Configure is a pointer so an explicit false survives defaulting.
	Configure *bool `yaml:"configure,omitempty"`
}

func (r Routes) Enabled() bool {
	return r.Configure == nil || *r.Configure
}

type Metrics struct {
	Address string `yaml:"address,omitempty"`
}
