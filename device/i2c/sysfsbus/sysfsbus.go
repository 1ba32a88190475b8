// Package sysfsbus drives a bus port through gobot's sysfs i2c device.
// It issues plain write and read transactions without repeated start,
// which is the fallback for adapters lacking full I2C_FUNC_I2C
// support. Register-addressed reads become a write followed by a
// separate read; most peripherals tolerate this.
package sysfsbus

import (
	"fmt"
	"io"
	"sync"
	"time"

	"i2c_access/config"
	"i2c_access/device/i2c"
)

// Driver implements i2c.PortDriver on top of sysfs i2c devices.
type Driver struct {
	mu   sync.Mutex
	devs map[i2c.Port]busDev
	cfgs map[i2c.Port]i2c.Config
}

// busDev is the slice of the gobot device surface this backend needs.
type busDev interface {
	io.ReadWriteCloser
	SetAddress(int) error
}

func New() *Driver {
	return &Driver{
		devs: make(map[i2c.Port]busDev),
		cfgs: make(map[i2c.Port]i2c.Config),
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
		return fmt.Errorf("%w: sysfs port %d only supports master mode", i2c.ErrUnsupported, p)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.devs[p]; ok {
		return fmt.Errorf("%w: port %d already installed", i2c.ErrFault, p)
	}
	dev, err := openDev(fmt.Sprintf(config.DevicePattern, p))
	if err != nil {
		return err
	}
	d.devs[p] = dev
	return nil
}

func (d *Driver) Remove(p i2c.Port) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, ok := d.devs[p]
	if !ok {
		return nil
	}
	delete(d.devs, p)
	return dev.Close()
}

// Submit runs each addressed segment as its own transaction. The
// timeout is not enforceable through this interface; the kernel bound
// applies.
func (d *Driver) Submit(p i2c.Port, seq *i2c.Sequence, timeout time.Duration) error {
	d.mu.Lock()
	dev, ok := d.devs[p]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: port %d not installed", i2c.ErrFault, p)
	}

	msgs, err := seq.Messages()
	if err != nil {
		return err
	}

	for _, m := range msgs {
		if err := dev.SetAddress(int(m.Addr)); err != nil {
			return err
		}
		if m.Read {
			if _, err := io.ReadFull(dev, m.R); err != nil {
				return err
			}
		} else {
			if _, err := dev.Write(m.W); err != nil {
				return err
			}
		}
	}
	return nil
}
