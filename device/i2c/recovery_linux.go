//go:build linux
// +build linux

package i2c

import (
	"fmt"
	"time"

	"github.com/warthog618/gpiod"
)

const recoverClockPulses = 9

// Recover frees a bus whose peripheral is stuck driving SDA low by
// clocking SCL until the peripheral finishes the byte it thinks it is
// sending, then issuing a stop condition. Must run before the port
// driver is installed, while the pins are still free for GPIO use.
func Recover(chip string, cfg Config) error {
	scl, err := gpiod.RequestLine(chip, cfg.SCL, gpiod.AsOutput(1))
	if err != nil {
		return fmt.Errorf("recover: request SCL %d: %w", cfg.SCL, err)
	}
	defer scl.Close()

	sda, err := gpiod.RequestLine(chip, cfg.SDA, gpiod.AsOutput(1))
	if err != nil {
		return fmt.Errorf("recover: request SDA %d: %w", cfg.SDA, err)
	}
	defer sda.Close()

	// ~100 kHz half period
	const half = 5 * time.Microsecond

	for i := 0; i < recoverClockPulses; i++ {
		if err := scl.SetValue(0); err != nil {
			return fmt.Errorf("recover: drive SCL: %w", err)
		}
		time.Sleep(half)
		if err := scl.SetValue(1); err != nil {
			return fmt.Errorf("recover: drive SCL: %w", err)
		}
		time.Sleep(half)
	}

	// Stop condition: SDA rises while SCL is high.
	if err := sda.SetValue(0); err != nil {
		return fmt.Errorf("recover: drive SDA: %w", err)
	}
	time.Sleep(half)
	if err := sda.SetValue(1); err != nil {
		return fmt.Errorf("recover: drive SDA: %w", err)
	}
	time.Sleep(half)

	alog.Infof("bus recovery pulsed %d clocks on SCL %d / SDA %d", recoverClockPulses, cfg.SCL, cfg.SDA)
	return nil
}
