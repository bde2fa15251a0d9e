package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

// waitForBatteryReady blocks until p reports a discharging battery. While
// the battery is charging it asks the user to unplug the AC adapter and
// press Enter, then checks again. Any other battery error is returned.
func waitForBatteryReady(p telemetry.Platform, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	for {
		_, err := p.BatteryInfo()
		switch {
		case err == nil:
			fmt.Fprintln(out, "Battery detected and ready for measurements")
			return nil
		case errors.Is(err, telemetry.ErrCharging):
			fmt.Fprintln(out, "Battery is currently charging")
			fmt.Fprintln(out, "For accurate battery life measurements, the AC adapter must be unplugged")
			fmt.Fprintln(out, "Please unplug your AC adapter and press Enter to continue...")

			if _, err := reader.ReadString('\n'); err != nil {
				return fmt.Errorf("no input while waiting for the AC adapter to be unplugged: %w", telemetry.ErrCharging)
			}
			fmt.Fprintln(out, "Checking battery status...")
		default:
			return err
		}
	}
}
