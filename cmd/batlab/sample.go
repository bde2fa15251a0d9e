package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

func NewSampleCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "sample",
		Short:   "Collect and print a single telemetry sample",
		GroupID: gMeasure,
		Long: `Collect and print a single telemetry sample.

The battery must be discharging. If it is charging you will be asked to
unplug the AC adapter first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			p := newPlatform(conf)
			if err := waitForBatteryReady(p, cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
				return err
			}

			sample, err := telemetry.Collect(p)
			if err != nil {
				return fmt.Errorf("telemetry collection failed: %w", err)
			}

			return printValue(cmd.OutOrStdout(), output, sample, func(w io.Writer) {
				printSampleText(w, sample)
			})
		},
	}

	addOutputFlag(cmd, &output)

	return cmd
}

func printSampleText(w io.Writer, s *telemetry.TelemetrySample) {
	fmt.Fprintln(w, bold("Battery:"))
	fmt.Fprintf(w, "  Charge: %s (%s)\n", bold("%.1f%%", s.Percentage), s.Source)
	fmt.Fprintf(w, "  Power draw: %s\n", bold("%.2f W", s.Watts))
	fmt.Fprintln(w, bold("System:"))
	fmt.Fprintf(w, "  CPU load: %.2f\n", s.CPULoad)
	fmt.Fprintf(w, "  Memory used: %.1f%%\n", s.RAMPct)
	fmt.Fprintf(w, "  Temperature: %.1f °C\n", s.TempC)
	fmt.Fprintf(w, "  Time: %s\n", s.Timestamp.Format(time.RFC3339))
}
