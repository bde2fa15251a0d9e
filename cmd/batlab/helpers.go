package main

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
	outputText = "text"
)

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", outputJSON, "output format (json, yaml, text)")
}

func validateOutput(output string) error {
	switch output {
	case outputJSON, outputYAML, outputText:
		return nil
	default:
		return fmt.Errorf("invalid output format %q, must be one of json, yaml, text", output)
	}
}

// printValue writes v to w in the requested format. text renders the
// human-readable form.
func printValue(w io.Writer, output string, v any, text func(w io.Writer)) error {
	switch output {
	case outputJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case outputText:
		text(w)
		return nil
	default:
		return validateOutput(output)
	}
}

var whitespace = regexp.MustCompile(`\s`)

// validateConfigName rejects names that would break run ids.
func validateConfigName(name string) error {
	if name == "" || whitespace.MatchString(name) {
		return fmt.Errorf("configuration name cannot be empty or contain whitespace")
	}
	return nil
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func orNA(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
