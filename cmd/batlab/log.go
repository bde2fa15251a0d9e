package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batlab/pkg/config"
	"github.com/charlie0129/batlab/pkg/sampler"
	"github.com/charlie0129/batlab/pkg/telemetry"
	"github.com/charlie0129/batlab/pkg/utils/ptr"
)

func NewLogCommand() *cobra.Command {
	var (
		outputFile string
		workload   string
	)

	cmd := &cobra.Command{
		Use:     "log <config-name>",
		Short:   "Log telemetry samples until interrupted",
		GroupID: gMeasure,
		Long: `Log telemetry samples until interrupted.

Samples are appended as JSON lines to <data-dir>/<run-id>.jsonl and run
metadata is written to <run-id>.meta.json next to it. The run id is
<UTC time>_<hostname>_<os>_<config-name>[_<workload>].

Press Ctrl+C to stop logging.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configName := args[0]
			if err := validateConfigName(configName); err != nil {
				return err
			}
			if workload != "" {
				if err := validateConfigName(workload); err != nil {
					return fmt.Errorf("invalid workload name: %w", err)
				}
			}
			hz := conf.SamplingHz()
			if err := config.ValidateSamplingHz(hz); err != nil {
				return err
			}

			p := newPlatform(conf)
			if err := waitForBatteryReady(p, cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
				return err
			}

			info, err := systemInfo()
			if err != nil {
				return fmt.Errorf("failed to get system info: %w", err)
			}

			start := time.Now()
			runID := telemetry.GenerateRunID(start, info.Hostname, p.Name(), configName, workload)

			jsonlFile := outputFile
			if jsonlFile == "" {
				if err := os.MkdirAll(conf.DataDir(), 0o755); err != nil {
					return fmt.Errorf("failed to create data dir: %w", err)
				}
				jsonlFile = filepath.Join(conf.DataDir(), runID+".jsonl")
			}
			metaFile := strings.TrimSuffix(jsonlFile, filepath.Ext(jsonlFile)) + ".meta.json"

			meta := telemetry.RunMetadata{
				SystemInfo: info,
				RunID:      runID,
				Config:     configName,
				StartTime:  start.UTC(),
				SamplingHz: hz,
			}
			if workload != "" {
				meta.Workload = ptr.To(workload)
			}
			if capacity, err := p.BatteryCapacity(); err != nil {
				logrus.WithError(err).Warn("failed to read battery capacity")
			} else if !capacity.Empty() {
				meta.BatteryCapacity = capacity
			}
			if err := writeMetadata(metaFile, &meta); err != nil {
				return err
			}

			f, err := os.OpenFile(jsonlFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open output file: %w", err)
			}
			defer f.Close()

			conf.Watch(func(c config.Config) {
				if level, err := logrus.ParseLevel(c.LogLevel()); err == nil {
					logrus.SetLevel(level)
				}
			})

			cmd.Println(bold("Starting telemetry logging"))
			cmd.Printf("  Configuration: %s\n", configName)
			cmd.Printf("  Run ID: %s\n", runID)
			cmd.Printf("  Output: %s\n", jsonlFile)
			cmd.Printf("  Sampling at %.2f Hz\n", hz)
			cmd.Println("Press Ctrl+C to stop logging")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			writer := sampler.NewJSONLWriter(f, sampler.DefaultFlushEvery)
			opts := sampler.Options{
				Platform:           p,
				Interval:           time.Duration(float64(time.Second) / hz),
				Writer:             writer,
				MaxStartupFailures: conf.MaxStartupFailures(),
			}
			if path := conf.PromTextfile(); path != "" {
				opts.Exporter = sampler.NewPromExporter(path)
			}

			stats, err := sampler.Run(ctx, opts)

			cmd.Println()
			cmd.Println(bold("Telemetry logging stopped"))
			cmd.Printf("  Samples collected: %d\n", stats.Samples)
			cmd.Printf("  Lines written: %d\n", writer.Count())
			if !stats.LastAttempt.IsZero() {
				cmd.Printf("  Last sample attempt: %s\n", stats.LastAttempt.UTC().Format(time.RFC3339))
			}
			if stats.Errors > 0 {
				cmd.Printf("  Errors encountered: %d\n", stats.Errors)
			}
			if stats.Gaps > 0 {
				cmd.Printf("  Sampling gaps: %d\n", stats.Gaps)
			}

			return err
		},
	}

	flags := cmd.Flags()
	flags.Float64(config.KeySamplingHz, 0.0167, "sampling rate in Hz (0.01 to 10)")
	flags.String(config.KeyPromTextfile, "", "also write the latest sample to this Prometheus textfile")
	flags.Int(config.KeyMaxStartupFailures, 10, "failed samples tolerated before the first successful one")
	flags.StringVarP(&outputFile, "output", "o", "", "output file (default: <data-dir>/<run-id>.jsonl)")
	flags.StringVarP(&workload, "workload", "w", "", "workload name recorded in the run id and metadata")

	return cmd
}

func writeMetadata(path string, meta *telemetry.RunMetadata) error {
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run metadata: %w", telemetry.NewSerializationError(err))
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write run metadata: %w", telemetry.NewIOError(err))
	}
	return nil
}
