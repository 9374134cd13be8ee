package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
host: 127.0.0.1
port: 6565
num_event_loop: 4
inactive_timeout: 30
tick_interval: 500ms
wheel_slots: 120
tcp_keepalive: 15s
log_level: debug
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", config.Host)
	assert.Equal(t, 6565, config.Port)

	options := parseOption(config.Options()...)
	assert.Equal(t, 4, options.NumEventLoop)
	assert.Equal(t, 30, options.InactiveTimeout)
	assert.Equal(t, 500*time.Millisecond, options.TickInterval)
	assert.Equal(t, 120, options.WheelSlots)
	assert.Equal(t, 15*time.Second, options.TCPKeepAlive)
	assert.Equal(t, "debug", options.LogLevel)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "port: 7000\n"))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", config.Host)

	options := parseOption(config.Options()...)
	assert.Equal(t, 0, options.NumEventLoop)
	assert.Equal(t, time.Duration(0), options.TickInterval)
	assert.Equal(t, 0, options.WheelSlots)
	assert.Empty(t, options.LogLevel)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "port: [1, 2]\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "port: 70000\n"))
	assert.Error(t, err)
}
