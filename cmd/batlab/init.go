package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and check which battery sources work",
		Long: `Create the data directory and check which battery sources work.

Every battery source of this platform is asked for one reading. A source
that reports a charging battery counts as working.`,
		GroupID: gMeasure,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataDir := conf.DataDir()
			created, err := ensureDir(dataDir)
			if err != nil {
				return err
			}

			cmd.Println(bold("Initializing batlab"))
			if created {
				cmd.Printf("  Created data directory: %s\n", dataDir)
			} else {
				cmd.Printf("  Data directory: %s\n", dataDir)
			}

			p := newPlatform(conf)
			osName := p.Name()
			if info, err := systemInfo(); err == nil {
				osName = fmt.Sprintf("%s (%s)", info.OS, p.Name())
			} else {
				logrus.WithError(err).Debug("failed to read system info")
			}
			cmd.Printf("  Detected: %s\n", osName)

			checker, ok := p.(telemetry.SourceChecker)
			if !ok {
				cmd.Printf("Unsupported OS: %s, battery telemetry will not work\n", p.Name())
				return nil
			}

			if printSourceStatuses(cmd.OutOrStdout(), checker.CheckSources()) == 0 {
				cmd.Println("No battery telemetry sources found")
				return nil
			}

			cmd.Println()
			cmd.Println("Next steps:")
			cmd.Println("  1. Configure your system power management")
			cmd.Println("  2. Unplug the AC adapter")
			cmd.Println("  3. Run: batlab log <config-name>")

			return nil
		},
	}
}

// ensureDir creates dir if needed and reports whether it did.
func ensureDir(dir string) (bool, error) {
	if _, err := os.Stat(dir); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to check data directory: %w", telemetry.NewIOError(err))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create data directory: %w", telemetry.NewIOError(err))
	}
	return true, nil
}

// printSourceStatuses prints one line per source and returns how many
// are usable.
func printSourceStatuses(w io.Writer, statuses []telemetry.SourceStatus) int {
	fmt.Fprintln(w, bold("Battery sources:"))

	usable := 0
	for _, s := range statuses {
		switch {
		case s.Err == nil:
			usable++
			fmt.Fprintf(w, "  %-8s available\n", s.Source)
		case s.Usable():
			usable++
			fmt.Fprintf(w, "  %-8s available (battery is charging)\n", s.Source)
		default:
			fmt.Fprintf(w, "  %-8s unavailable: %v\n", s.Source, s.Err)
		}
	}
	return usable
}
