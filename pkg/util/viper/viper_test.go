package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Stdout bool   `mapstructure:"stdout"`
	} `mapstructure:"log"`
	Archive struct {
		MinCompressSize int `mapstructure:"min-compress-size"`
	} `mapstructure:"archive"`
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "log:\n  level: debug\n  stdout: true\narchive:\n  min-compress-size: 2048\n")

	c := New()
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, path, c.ConfigFile())

	var s sample
	require.NoError(t, c.Unmarshal(&s))
	assert.Equal(t, "debug", s.Log.Level)
	assert.True(t, s.Log.Stdout)
	assert.Equal(t, 2048, s.Archive.MinCompressSize)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"log": {"level": "warn"}}`)

	c := New()
	require.NoError(t, c.LoadFile(path))

	var s sample
	require.NoError(t, c.UnmarshalKey("log", &s.Log))
	assert.Equal(t, "warn", s.Log.Level)
}

func TestLoadMissing(t *testing.T) {
	c := New()
	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestDefaultsAndEnv(t *testing.T) {
	t.Setenv("DGUITEST_LOG_LEVEL", "error")
	t.Setenv("DGUITEST_ARCHIVE_MIN_COMPRESS_SIZE", "64")

	c := New(WithEnvPrefix("DGUITEST"), WithDefaults(map[string]any{
		"log.level":                 "info",
		"log.stdout":                true,
		"archive.min-compress-size": 1024,
	}))
	assert.True(t, c.IsSet("log.level"))
	assert.False(t, c.IsSet("log.format"))

	var s sample
	require.NoError(t, c.Unmarshal(&s))
	assert.Equal(t, "error", s.Log.Level)
	assert.True(t, s.Log.Stdout)
	assert.Equal(t, 64, s.Archive.MinCompressSize)
}
