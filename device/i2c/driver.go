package i2c

import "time"

// PortDriver is the contract the access layer requires from the
// underlying bus controller driver. Implementations live in the devfs,
// periphbus and sysfsbus subpackages; i2ctest provides a recording
// fake for tests.
//
// The access layer calls Remove, Configure, Install in that order and
// only while holding the port lock. Remove of a port that was never
// installed must succeed (idempotent teardown).
type PortDriver interface {
	// Configure stages the electrical parameters for the port.
	Configure(p Port, cfg Config) error

	// Install activates the controller on the port in the given mode,
	// with no dedicated transfer buffering (transactions are
	// synchronous).
	Install(p Port, mode Mode) error

	// Remove deactivates the controller and releases its hardware
	// resources for the port.
	Remove(p Port) error

	// Submit executes one assembled command sequence, blocking until
	// the wire transaction completes, fails, or the timeout elapses.
	Submit(p Port, seq *Sequence, timeout time.Duration) error
}
