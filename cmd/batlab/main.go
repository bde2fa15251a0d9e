package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/batlab/pkg/config"
	"github.com/charlie0129/batlab/pkg/hoststat"
	"github.com/charlie0129/batlab/pkg/platform"
	"github.com/charlie0129/batlab/pkg/sampler"
	"github.com/charlie0129/batlab/pkg/telemetry"
)

var (
	configPath = ""
	conf       *config.File
)

// Replaced in tests.
var (
	newPlatform = func(c config.Config) telemetry.Platform {
		return platform.New(platform.Options{
			CommandTimeout: c.CommandTimeout(),
			SysfsRoot:      c.SysfsRoot(),
			ProcfsRoot:     c.ProcfsRoot(),
		})
	}
	systemInfo = hoststat.SystemInfo
)

var (
	gMeasure      = "Measurement:"
	gInfo         = "Information:"
	commandGroups = []string{
		gMeasure,
		gInfo,
	}
)

func setupLogger(logLevel string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(w io.Writer, err error) {
	var batteryErr *telemetry.BatteryError
	var telemetryErr *telemetry.TelemetryError

	switch {
	case errors.Is(err, telemetry.ErrCharging):
		fmt.Fprintln(w, "\nHint: Unplug the AC adapter for accurate battery measurements")
	case errors.Is(err, telemetry.ErrNotFound):
		fmt.Fprintln(w, "\nHint: Make sure you're running on a laptop with a battery")
		switch runtime.GOOS {
		case "freebsd":
			fmt.Fprintln(w, "  - Try: pkg install acpi (for the acpiconf command)")
		case "linux":
			fmt.Fprintln(w, "  - Try: which upower (check if upower is installed)")
		}
	case errors.As(err, &batteryErr) && batteryErr.Kind == telemetry.BatteryPermissionDenied:
		fmt.Fprintf(w, "\nHint: Permission denied accessing %s\n", batteryErr.Tool)
		fmt.Fprintln(w, "  - Try running the command again with 'sudo'")
	case errors.As(err, &batteryErr) && batteryErr.Kind == telemetry.BatteryToolUnavailable:
		fmt.Fprintf(w, "\nHint: %s is not installed or not working\n", batteryErr.Tool)
	case errors.As(err, &telemetryErr) && telemetryErr.Kind == telemetry.KindUnavailable:
		fmt.Fprintf(w, "\nHint: %s not available on this system\n", telemetryErr.Resource)
	case errors.Is(err, sampler.ErrStartupFailed):
		fmt.Fprintln(w, "\nHint: No sample succeeded. Run 'batlab sample --log-level debug' to see why")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(os.Stderr, err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batlab",
		Short: "batlab measures laptop battery life under controlled workloads",
		Long: `batlab measures laptop battery life under controlled workloads.

It samples battery charge, discharge rate, CPU load, memory usage and
temperature on FreeBSD and Linux, and logs them for later analysis.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.NewFile(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return err
			}
			conf = c

			if err := setupLogger(conf.LogLevel()); err != nil {
				return err
			}
			logrus.WithFields(conf.LogrusFields()).WithField("file", conf.ConfigFileUsed()).Debug("config loaded")

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringP(config.KeyLogLevel, "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", "", "config file path (default: batlab.yaml in ., ~/.config/batlab or /etc)")
	globalFlags.StringP(config.KeyDataDir, "d", "data", "directory for run logs and metadata")
	globalFlags.Duration(config.KeyCommandTimeout, 5*time.Second, "timeout of every external command")
	globalFlags.String(config.KeySysfsRoot, "/sys", "sysfs mount point (Linux)")
	globalFlags.String(config.KeyProcfsRoot, "/proc", "procfs mount point (Linux)")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewVersionCommand(),
		NewInitCommand(),
		NewSampleCommand(),
		NewLogCommand(),
		NewCapacityCommand(),
		NewMetadataCommand(),
	)

	return cmd
}
