// Package config holds the bus access layer settings. Defaults match
// the controller board; each field can be overridden from the
// environment so field units do not need a rebuild to tune timeouts.
package config

import (
	"os"
	"time"

	"i2c_access/log"
	"i2c_access/util"
)

const (
	// DefaultPortCount is the number of two-wire controller units on
	// the target chip.
	DefaultPortCount = 2

	DefaultLockTimeout = 1000 * time.Millisecond
	DefaultXferTimeout = 1000 * time.Millisecond

	// DevicePattern is the character-device path for port N.
	DevicePattern = "/dev/i2c-%d"
)

type BusConfig struct {
	PortCount   int
	LockTimeout time.Duration
	XferTimeout time.Duration
}

// Load returns the bus configuration, applying any environment
// overrides on top of the defaults.
func Load() *BusConfig {
	cfg := &BusConfig{
		PortCount:   DefaultPortCount,
		LockTimeout: DefaultLockTimeout,
		XferTimeout: DefaultXferTimeout,
	}

	if v := os.Getenv("I2C_PORT_COUNT"); v != "" {
		if n, err := util.ToUint(v); err == nil && n > 0 {
			cfg.PortCount = int(n)
		} else {
			log.Errorf("config: bad I2C_PORT_COUNT %q, keeping %d", v, cfg.PortCount)
		}
	}
	if v := os.Getenv("I2C_LOCK_TIMEOUT_MS"); v != "" {
		if n, err := util.ToUint(v); err == nil && n > 0 {
			cfg.LockTimeout = time.Duration(n) * time.Millisecond
		} else {
			log.Errorf("config: bad I2C_LOCK_TIMEOUT_MS %q, keeping %v", v, cfg.LockTimeout)
		}
	}
	if v := os.Getenv("I2C_XFER_TIMEOUT_MS"); v != "" {
		if n, err := util.ToUint(v); err == nil && n > 0 {
			cfg.XferTimeout = time.Duration(n) * time.Millisecond
		} else {
			log.Errorf("config: bad I2C_XFER_TIMEOUT_MS %q, keeping %v", v, cfg.XferTimeout)
		}
	}

	return cfg
}
