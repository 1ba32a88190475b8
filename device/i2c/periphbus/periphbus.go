// Package periphbus drives a bus port through periph.io, avoiding
// cgo, unsafe and raw syscalls. Combined transfers are limited to the
// write-then-read shape periph's Tx exposes, which covers the access
// layer's read and write framing.
package periphbus

import (
	"fmt"
	"sync"
	"time"

	pi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"i2c_access/config"
	"i2c_access/device/i2c"
	"i2c_access/log"
)

var plog = log.Tag("periphbus")

// Driver implements i2c.PortDriver on top of i2creg buses.
type Driver struct {
	mu    sync.Mutex
	buses map[i2c.Port]pi2c.BusCloser
	cfgs  map[i2c.Port]i2c.Config

	hostOnce sync.Once
	hostErr  error
}

func New() *Driver {
	return &Driver{
		buses: make(map[i2c.Port]pi2c.BusCloser),
		cfgs:  make(map[i2c.Port]i2c.Config),
	}
}

func (d *Driver) Configure(p i2c.Port, cfg i2c.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfgs[p] = cfg
	return nil
}

func (d *Driver) Install(p i2c.Port, mode i2c.Mode) error {
	if mode != i2c.ModeMaster {
		return fmt.Errorf("%w: periph port %d only supports master mode", i2c.ErrUnsupported, p)
	}

	d.hostOnce.Do(func() {
		_, d.hostErr = host.Init()
	})
	if d.hostErr != nil {
		return fmt.Errorf("host init: %w", d.hostErr)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.buses[p]; ok {
		return fmt.Errorf("%w: port %d already installed", i2c.ErrFault, p)
	}
	bus, err := i2creg.Open(fmt.Sprintf(config.DevicePattern, p))
	if err != nil {
		return err
	}
	if speed := d.cfgs[p].Speed; speed > 0 {
		if err := bus.SetSpeed(speed); err != nil {
			// Many adapters cannot change speed from userspace; the
			// transfer still works at the kernel default.
			plog.Debugf("port %d: set speed %s: %v", p, speed, err)
		}
	}
	d.buses[p] = bus
	return nil
}

func (d *Driver) Remove(p i2c.Port) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	bus, ok := d.buses[p]
	if !ok {
		return nil
	}
	delete(d.buses, p)
	return bus.Close()
}

// Submit executes the sequence. periph has no per-transfer timeout
// parameter; the kernel's own transfer bound applies.
func (d *Driver) Submit(p i2c.Port, seq *i2c.Sequence, timeout time.Duration) error {
	d.mu.Lock()
	bus, ok := d.buses[p]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: port %d not installed", i2c.ErrFault, p)
	}

	msgs, err := seq.Messages()
	if err != nil {
		return err
	}

	switch len(msgs) {
	case 0:
		return nil
	case 1:
		m := msgs[0]
		if m.Read {
			return bus.Tx(uint16(m.Addr), nil, m.R)
		}
		return bus.Tx(uint16(m.Addr), m.W, nil)
	case 2:
		w, r := msgs[0], msgs[1]
		if w.Read || !r.Read || w.Addr != r.Addr {
			return fmt.Errorf("%w: periph supports only write-then-read combined transfers", i2c.ErrUnsupported)
		}
		return bus.Tx(uint16(w.Addr), w.W, r.R)
	default:
		return fmt.Errorf("%w: %d segments", i2c.ErrUnsupported, len(msgs))
	}
}
