//go:build !linux
// +build !linux

package sysfsbus

import (
	"fmt"

	"i2c_access/device/i2c"
)

func openDev(path string) (busDev, error) {
	return nil, fmt.Errorf("%w: sysfs i2c is linux-only", i2c.ErrUnsupported)
}
