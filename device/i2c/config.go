package i2c

import "periph.io/x/conn/v3/physic"

// Port identifies one physical two-wire controller unit. Valid values
// are [0, N) with N fixed at table construction; ports are never
// created or destroyed at runtime.
type Port int

// Mode is the controller role on the wire.
type Mode uint8

const (
	ModeSlave Mode = iota
	ModeMaster
)

// Config is the electrical configuration a device needs on its port:
// pin assignment, pull-ups and clock speed. It is a value type; the
// access layer copies it, never aliases it.
type Config struct {
	SCL       int // clock pin offset
	SDA       int // data pin offset
	SCLPullup bool
	SDAPullup bool
	Speed     physic.Frequency

	// Mode is not part of the electrical identity and is forced to
	// ModeMaster before the port is installed. Slave topologies are
	// not supported.
	Mode Mode
}

// Equal reports whether the two configurations would program the port
// hardware identically. Mode is excluded: it is overridden anyway.
func (c Config) Equal(o Config) bool {
	return c.SCL == o.SCL &&
		c.SDA == o.SDA &&
		c.SCLPullup == o.SCLPullup &&
		c.SDAPullup == o.SDAPullup &&
		c.Speed == o.Speed
}

// Dev is a caller-owned handle to one addressable peripheral. Any
// number of handles may reference the same port, with identical or
// differing configurations; the access layer reconciles the port
// hardware per transaction.
type Dev struct {
	Port Port
	Addr uint8 // 7-bit peripheral address
	Cfg  Config
}
