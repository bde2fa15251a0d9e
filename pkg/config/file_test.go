package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batlab.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestNewFile_Defaults(t *testing.T) {
	path := writeConfig(t, "")
	f, err := NewFile(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "info", f.LogLevel())
	assert.Equal(t, "data", f.DataDir())
	assert.InDelta(t, 0.0167, f.SamplingHz(), 1e-9)
	assert.Equal(t, 5*time.Second, f.CommandTimeout())
	assert.Equal(t, "/sys", f.SysfsRoot())
	assert.Equal(t, "/proc", f.ProcfsRoot())
	assert.Empty(t, f.PromTextfile())
	assert.Equal(t, 10, f.MaxStartupFailures())
	assert.Equal(t, path, f.ConfigFileUsed())
	assert.NoError(t, f.Validate())
}

func TestNewFile_MissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewFile(path, nil)
	assert.ErrorContains(t, err, "config file "+path+" not found")
}

func TestNewFile_Sources(t *testing.T) {
	path := writeConfig(t, `
log-level: debug
data-dir: /var/lib/batlab
sampling-hz: 0.5
command-timeout: 2s
prom-textfile: /var/lib/node_exporter/batlab.prom
`)

	t.Run("file", func(t *testing.T) {
		f, err := NewFile(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "debug", f.LogLevel())
		assert.Equal(t, "/var/lib/batlab", f.DataDir())
		assert.Equal(t, 0.5, f.SamplingHz())
		assert.Equal(t, 2*time.Second, f.CommandTimeout())
		assert.Equal(t, "/var/lib/node_exporter/batlab.prom", f.PromTextfile())
		assert.Equal(t, "/sys", f.SysfsRoot())
		assert.Equal(t, path, f.ConfigFileUsed())
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("BATLAB_SAMPLING_HZ", "2")
		t.Setenv("BATLAB_MAX_STARTUP_FAILURES", "3")
		f, err := NewFile(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 2.0, f.SamplingHz())
		assert.Equal(t, 3, f.MaxStartupFailures())
		assert.Equal(t, "debug", f.LogLevel())
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("BATLAB_SAMPLING_HZ", "2")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Float64(KeySamplingHz, 1, "")
		flags.String(KeyDataDir, "data", "")
		require.NoError(t, flags.Parse([]string{"--sampling-hz=4"}))

		f, err := NewFile(path, flags)
		require.NoError(t, err)
		assert.Equal(t, 4.0, f.SamplingHz())
		assert.Equal(t, "/var/lib/batlab", f.DataDir(), "unchanged flags must not override the file")
	})
}

func TestNewFile_Malformed(t *testing.T) {
	path := writeConfig(t, "sampling-hz: [1, 2\n")
	_, err := NewFile(path, nil)
	assert.Error(t, err)
}

func TestFile_Validate(t *testing.T) {
	base := defaultRawConfig

	tests := []struct {
		name    string
		mutate  func(c *RawConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *RawConfig) {}},
		{name: "max rate", mutate: func(c *RawConfig) { c.SamplingHz = 10 }},
		{name: "min rate", mutate: func(c *RawConfig) { c.SamplingHz = 0.01 }},
		{name: "rate too high", mutate: func(c *RawConfig) { c.SamplingHz = 10.5 }, wantErr: true},
		{name: "rate too low", mutate: func(c *RawConfig) { c.SamplingHz = 0.001 }, wantErr: true},
		{name: "bad log level", mutate: func(c *RawConfig) { c.LogLevel = "loud" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *RawConfig) { c.CommandTimeout = 0 }, wantErr: true},
		{name: "zero startup failures", mutate: func(c *RawConfig) { c.MaxStartupFailures = 0 }, wantErr: true},
		{name: "empty data dir", mutate: func(c *RawConfig) { c.DataDir = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := NewFileFromConfig(&c).Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFile_Watch(t *testing.T) {
	path := writeConfig(t, "log-level: info\n")
	f, err := NewFile(path, nil)
	require.NoError(t, err)

	changed := make(chan string, 16)
	f.Watch(func(c Config) {
		select {
		case changed <- c.LogLevel():
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("log-level: trace\n"), 0o644))

	// A truncating write may be observed before the new content lands.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case level := <-changed:
			if level != "trace" {
				continue
			}
			assert.Equal(t, "trace", f.LogLevel())
			return
		case <-timeout:
			t.Fatal("config change was not observed")
		}
	}
}

func TestFile_LogrusFields(t *testing.T) {
	fields := NewFileFromConfig(nil).LogrusFields()
	assert.Equal(t, "info", fields["logLevel"])
	assert.Equal(t, 10, fields["maxStartupFailures"])
}
