package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys double as flag names and, upper-cased with "_" and a BATLAB_
// prefix, as environment variables.
const (
	KeyLogLevel           = "log-level"
	KeyDataDir            = "data-dir"
	KeySamplingHz         = "sampling-hz"
	KeyCommandTimeout     = "command-timeout"
	KeySysfsRoot          = "sysfs-root"
	KeyProcfsRoot         = "procfs-root"
	KeyPromTextfile       = "prom-textfile"
	KeyMaxStartupFailures = "max-startup-failures"

	EnvPrefix = "BATLAB"

	MinSamplingHz = 0.01
	MaxSamplingHz = 10.0
)

var defaultRawConfig = RawConfig{
	LogLevel:           "info",
	DataDir:            "data",
	SamplingHz:         0.0167,
	CommandTimeout:     5 * time.Second,
	SysfsRoot:          "/sys",
	ProcfsRoot:         "/proc",
	PromTextfile:       "",
	MaxStartupFailures: 10,
}

// RawConfig is the decoded configuration.
type RawConfig struct {
	LogLevel           string        `mapstructure:"log-level" json:"logLevel" yaml:"log-level"`
	DataDir            string        `mapstructure:"data-dir" json:"dataDir" yaml:"data-dir"`
	SamplingHz         float64       `mapstructure:"sampling-hz" json:"samplingHz" yaml:"sampling-hz"`
	CommandTimeout     time.Duration `mapstructure:"command-timeout" json:"commandTimeout" yaml:"command-timeout"`
	SysfsRoot          string        `mapstructure:"sysfs-root" json:"sysfsRoot" yaml:"sysfs-root"`
	ProcfsRoot         string        `mapstructure:"procfs-root" json:"procfsRoot" yaml:"procfs-root"`
	PromTextfile       string        `mapstructure:"prom-textfile" json:"promTextfile" yaml:"prom-textfile"`
	MaxStartupFailures int           `mapstructure:"max-startup-failures" json:"maxStartupFailures" yaml:"max-startup-failures"`
}

var _ Config = &File{}

// File is a Config read from an optional YAML file, BATLAB_* environment
// variables and bound command line flags, in increasing precedence.
type File struct {
	v        *viper.Viper
	c        *RawConfig
	mu       *sync.RWMutex
	filepath string
	// found is set once a config file has been read.
	found bool
}

// NewFile loads the configuration. An empty configPath searches for
// batlab.yaml in the working directory, ~/.config/batlab and /etc, and
// falls back to the defaults. A configPath that does not exist is an
// error.
// Flags in flags whose names match a key override every other source.
func NewFile(configPath string, flags *pflag.FlagSet) (*File, error) {
	f := newFile(configPath)

	if flags != nil {
		for _, key := range []string{
			KeyLogLevel, KeyDataDir, KeySamplingHz, KeyCommandTimeout,
			KeySysfsRoot, KeyProcfsRoot, KeyPromTextfile, KeyMaxStartupFailures,
		} {
			flag := flags.Lookup(key)
			if flag == nil {
				continue
			}
			if err := f.v.BindPFlag(key, flag); err != nil {
				return nil, pkgerrors.Wrapf(err, "failed to bind flag %s", key)
			}
		}
	}

	if err := f.Load(); err != nil {
		return nil, err
	}
	return f, nil
}

func newFile(configPath string) *File {
	v := viper.New()

	v.SetDefault(KeyLogLevel, defaultRawConfig.LogLevel)
	v.SetDefault(KeyDataDir, defaultRawConfig.DataDir)
	v.SetDefault(KeySamplingHz, defaultRawConfig.SamplingHz)
	v.SetDefault(KeyCommandTimeout, defaultRawConfig.CommandTimeout)
	v.SetDefault(KeySysfsRoot, defaultRawConfig.SysfsRoot)
	v.SetDefault(KeyProcfsRoot, defaultRawConfig.ProcfsRoot)
	v.SetDefault(KeyPromTextfile, defaultRawConfig.PromTextfile)
	v.SetDefault(KeyMaxStartupFailures, defaultRawConfig.MaxStartupFailures)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("batlab")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/batlab")
		v.AddConfigPath("/etc")
	}

	return &File{
		v:        v,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

// NewFileFromConfig wraps an already decoded configuration. A nil c
// uses the defaults.
func NewFileFromConfig(c *RawConfig) *File {
	if c == nil {
		d := defaultRawConfig
		c = &d
	}
	return &File{
		v:  viper.New(),
		c:  c,
		mu: &sync.RWMutex{},
	}
}

// Load reads every source again.
func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.loadLocked(true)
}

func (f *File) loadLocked(readFile bool) error {
	if readFile {
		err := f.v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		switch {
		case err == nil:
			f.found = true
			logrus.WithField("file", f.v.ConfigFileUsed()).Debug("loaded config file")
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist), os.IsNotExist(err):
			if f.filepath != "" {
				return pkgerrors.Wrapf(err, "config file %s not found", f.filepath)
			}
			logrus.Debug("no config file found, using defaults")
		default:
			return pkgerrors.Wrapf(err, "failed to read config file %s", f.filepath)
		}
	}

	conf := RawConfig{}
	if err := f.v.Unmarshal(&conf); err != nil {
		return pkgerrors.Wrap(err, "failed to decode config")
	}
	f.c = &conf

	return nil
}

// Watch reloads the configuration whenever the config file changes and
// then calls onChange. It is a no-op when no config file was found.
func (f *File) Watch(onChange func(Config)) {
	f.mu.RLock()
	found := f.found
	f.mu.RUnlock()
	if !found {
		return
	}

	f.v.OnConfigChange(func(e fsnotify.Event) {
		f.mu.Lock()
		err := f.loadLocked(false)
		f.mu.Unlock()

		if err != nil {
			logrus.WithError(err).WithField("file", e.Name).Warn("failed to reload config")
			return
		}

		logrus.WithField("file", e.Name).Info("config file changed, reloaded")
		if onChange != nil {
			onChange(f)
		}
	})
	f.v.WatchConfig()
}

// Validate checks value ranges.
func (f *File) Validate() error {
	if _, err := logrus.ParseLevel(f.LogLevel()); err != nil {
		return pkgerrors.Wrap(err, "invalid log level")
	}
	if err := ValidateSamplingHz(f.SamplingHz()); err != nil {
		return err
	}
	if f.CommandTimeout() <= 0 {
		return pkgerrors.Errorf("command timeout must be positive, got %s", f.CommandTimeout())
	}
	if f.MaxStartupFailures() < 1 {
		return pkgerrors.Errorf("max startup failures must be at least 1, got %d", f.MaxStartupFailures())
	}
	if f.DataDir() == "" {
		return pkgerrors.New("data dir must not be empty")
	}
	return nil
}

// ValidateSamplingHz checks hz is within [MinSamplingHz, MaxSamplingHz].
func ValidateSamplingHz(hz float64) error {
	if hz < MinSamplingHz || hz > MaxSamplingHz {
		return pkgerrors.Errorf("sampling rate must be between %v and %v Hz, got %v", MinSamplingHz, MaxSamplingHz, hz)
	}
	return nil
}

func (f *File) raw() RawConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		panic("config is nil")
	}
	return *f.c
}

func (f *File) LogLevel() string { return f.raw().LogLevel }
func (f *File) DataDir() string { return f.raw().DataDir }
func (f *File) SamplingHz() float64 { return f.raw().SamplingHz }
func (f *File) CommandTimeout() time.Duration { return f.raw().CommandTimeout }
func (f *File) SysfsRoot() string { return f.raw().SysfsRoot }
func (f *File) ProcfsRoot() string { return f.raw().ProcfsRoot }
func (f *File) PromTextfile() string { return f.raw().PromTextfile }
func (f *File) MaxStartupFailures() int { return f.raw().MaxStartupFailures }

// ConfigFileUsed returns the config file that was read, if any.
func (f *File) ConfigFileUsed() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.found {
		return ""
	}
	return f.v.ConfigFileUsed()
}

func (f *File) LogrusFields() logrus.Fields {
	c := f.raw()

	return logrus.Fields{
		"logLevel":           c.LogLevel,
		"dataDir":            c.DataDir,
		"samplingHz":         c.SamplingHz,
		"commandTimeout":     c.CommandTimeout,
		"sysfsRoot":          c.SysfsRoot,
		"procfsRoot":         c.ProcfsRoot,
		"promTextfile":       c.PromTextfile,
		"maxStartupFailures": c.MaxStartupFailures,
	}
}
