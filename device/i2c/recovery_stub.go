//go:build !linux
// +build !linux

package i2c

import "fmt"

// Recover requires GPIO character-device access, which is linux-only.
func Recover(chip string, cfg Config) error {
	return fmt.Errorf("%w: bus recovery is linux-only", ErrUnsupported)
}
