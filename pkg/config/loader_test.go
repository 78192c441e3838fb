package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/wireprobe/internal/probe"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Platform)
	assert.Equal(t, 10*time.Second, cfg.DHCP.Timeout)
	assert.Equal(t, []time.Duration{0, 10 * time.Second, 30 * time.Second, time.Minute, time.Minute}, cfg.DHCP.Schedule)
	assert.True(t, cfg.Routes.Enabled())
	assert.False(t, cfg.DHCP.WaitForNetwork)
}

func TestParseFull(t *testing.T) {
	data := `
logging:
  format: json
  level: debug
  components:
    osutil: warn
platform: coreos
interface: eth1
dhcp:
  timeout: 3s
  schedule: [0s, 1s, 2s]
  wait_for_network: true
  network_wait_interval: 5s
routes:
  configure: false
metrics:
  address: 127.0.0.1:9469
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, map[string]string{"osutil": "warn"}, cfg.Logging.Components)
	assert.Equal(t, "coreos", cfg.Platform)
	assert.Equal(t, "eth1", cfg.Interface)
	assert.Equal(t, 3*time.Second, cfg.DHCP.Timeout)
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second}, cfg.DHCP.Schedule)
	assert.True(t, cfg.DHCP.WaitForNetwork)
	assert.Equal(t, 5*time.Second, cfg.DHCP.NetworkWaitInterval)
	assert.False(t, cfg.Routes.Enabled())
	assert.Equal(t, "127.0.0.1:9469", cfg.Metrics.Address)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"format", "logging: {format: xml}", "logging.format"},
		{"platform", "platform: haiku", "platform"},
		{"timeout", "dhcp: {timeout: -1s}", "dhcp.timeout"},
		{"schedule", "dhcp: {schedule: [0s, -5s]}", "dhcp.schedule[1]"},
		{"yaml", "dhcp: [", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOptional(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, probe.DefaultSchedule(), cfg.DHCP.Schedule)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("platform: ubuntu\n"), 0o644))
	cfg, err = LoadOptional(path)
	require.NoError(t, err)
	assert.Equal(t, "ubuntu", cfg.Platform)

	_, err = Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
