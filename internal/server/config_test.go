package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig verifies the defaults.
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ":9001", cfg.Port)
	assert.Equal(t, []string{"http://localhost:9001"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(8192), cfg.MaxMessageSize)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.Equal(t, 60, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
}

// TestNewConfigFromEnv verifies environment overrides and fallbacks for bad values.
func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":7000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("SEND_BUFFER_SIZE", "not-a-number")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "3")

	cfg := NewConfigFromEnv()

	assert.Equal(t, ":7000", cfg.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.RefillInterval)
}

// TestLoadConfig verifies YAML values are applied under environment overrides.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paint.yaml")
	content := `port: ":9100"
allowed_origins:
  - "http://canvas.example"
max_message_size: 2048
send_buffer_size: 64
rate_limit:
  burst: 20
  refill_interval: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SERVER_PORT", ":9200")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9200", cfg.Port)
	assert.Equal(t, []string{"http://canvas.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(2048), cfg.MaxMessageSize)
	assert.Equal(t, 64, cfg.SendBufferSize)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.RefillInterval)
}

// TestLoadConfigErrors covers missing and malformed files.
func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

// TestLoadConfigWithoutFile verifies an empty path yields defaults.
func TestLoadConfigWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

// TestSetConfigSanitizes verifies invalid values fall back to defaults and
// origins are normalized.
func TestSetConfigSanitizes(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(&Config{
		AllowedOrigins: []string{" HTTP://Canvas.Example ", "", "not a url", "*"},
		MaxMessageSize: -1,
	})

	cfg := CurrentConfig()
	assert.Equal(t, ":9001", cfg.Port)
	assert.Equal(t, []string{"http://canvas.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(8192), cfg.MaxMessageSize)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.Equal(t, 60, cfg.RateLimit.Burst)

	configMu.RLock()
	defer configMu.RUnlock()
	assert.True(t, allowAllOrigins)
}
