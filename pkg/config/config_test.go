package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int           `env:"TEST_CFG_PORT" envDefault:"8090"`
	Store   string        `env:"TEST_CFG_STORE" envDefault:"memory"`
	Brokers []string      `env:"TEST_CFG_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"2s"`
	Secret  string        `env:"TEST_CFG_SECRET,required"`
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TEST_CFG_SECRET", "s")

	var cfg testConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_SECRET", "s")
	t.Setenv("TEST_CFG_PORT", "9000")
	t.Setenv("TEST_CFG_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("TEST_CFG_TIMEOUT", "500ms")

	var cfg testConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	var cfg testConfig
	assert.Error(t, Load(&cfg), "missing required variable")

	t.Setenv("TEST_CFG_SECRET", "s")
	t.Setenv("TEST_CFG_PORT", "not-a-port")
	assert.Error(t, Load(&cfg))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_DOTENV_STORE=elasticsearch\nTEST_DOTENV_PORT=9999\n"), 0o600))

	t.Setenv("TEST_DOTENV_PORT", "8080")
	t.Cleanup(func() { _ = os.Unsetenv("TEST_DOTENV_STORE") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "elasticsearch", os.Getenv("TEST_DOTENV_STORE"))
	assert.Equal(t, "8080", os.Getenv("TEST_DOTENV_PORT"))
}

func TestLoadDotEnv_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT VALID LINE WITHOUT EQUALS 'unterminated\n"), 0o600))

	assert.Error(t, LoadDotEnv(path))
}
