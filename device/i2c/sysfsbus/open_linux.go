//go:build linux
// +build linux

package sysfsbus

import "gobot.io/x/gobot/sysfs"

func openDev(path string) (busDev, error) {
	return sysfs.NewI2cDevice(path)
}
