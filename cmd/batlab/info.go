package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

func NewCapacityCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "capacity",
		Short:   "Print battery design and last full capacity",
		GroupID: gInfo,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			capacity, err := newPlatform(conf).BatteryCapacity()
			if err != nil {
				return fmt.Errorf("failed to read battery capacity: %w", err)
			}
			if capacity.Empty() {
				cmd.Println("no capacity data")
				return nil
			}

			return printValue(cmd.OutOrStdout(), output, capacity, func(w io.Writer) {
				printCapacityText(w, capacity)
			})
		},
	}

	addOutputFlag(cmd, &output)

	return cmd
}

func printCapacityText(w io.Writer, c *telemetry.BatteryCapacity) {
	fmt.Fprintln(w, bold("Battery capacity:"))
	fmt.Fprintf(w, "  Design: %s\n", orNA(c.DesignWh, "%.2f Wh"))
	fmt.Fprintf(w, "  Last full: %s\n", orNA(c.FullWh, "%.2f Wh"))
	if h := c.Health(); h > 0 {
		fmt.Fprintf(w, "  Health: %s\n", bold("%.1f%%", h))
	}
}

func NewMetadataCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "metadata",
		Short:   "Print system metadata recorded with every run",
		GroupID: gInfo,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			info, err := systemInfo()
			if err != nil {
				return fmt.Errorf("failed to get system info: %w", err)
			}

			return printValue(cmd.OutOrStdout(), output, info, func(w io.Writer) {
				fmt.Fprintln(w, bold("System:"))
				fmt.Fprintf(w, "  Hostname: %s\n", info.Hostname)
				fmt.Fprintf(w, "  OS: %s\n", info.OS)
				fmt.Fprintf(w, "  Kernel: %s\n", info.Kernel)
				fmt.Fprintf(w, "  CPU: %s\n", info.CPU)
				fmt.Fprintf(w, "  Machine: %s\n", info.Machine)
			})
		},
	}

	addOutputFlag(cmd, &output)

	return cmd
}
