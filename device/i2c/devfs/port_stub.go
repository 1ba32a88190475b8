//go:build !linux
// +build !linux

package devfs

import (
	"fmt"
	"time"

	"i2c_access/device/i2c"
)

// i2c-dev only exists on Linux; the stub keeps the package buildable
// for host-side tests elsewhere.

type port struct{}

func openPort(p i2c.Port, cfg i2c.Config) (*port, error) {
	return nil, fmt.Errorf("%w: i2c-dev is linux-only", i2c.ErrUnsupported)
}

func (pt *port) close() error {
	return nil
}

func (pt *port) submit(msgs []i2c.Message, timeout time.Duration) error {
	return fmt.Errorf("%w: i2c-dev is linux-only", i2c.ErrUnsupported)
}
