// Package devfs drives a bus port through the Linux i2c-dev character
// device. Combined transfers go through the I2C_RDWR ioctl, so
// repeated-start framing is preserved end to end.
package devfs

import (
	"fmt"
	"sync"
	"time"

	"i2c_access/device/i2c"
	"i2c_access/log"
)

var dlog = log.Tag("devfs")

// Driver implements i2c.PortDriver on top of /dev/i2c-N.
type Driver struct {
	mu    sync.Mutex
	ports map[i2c.Port]*port
	cfgs  map[i2c.Port]i2c.Config
}

func New() *Driver {
	return &Driver{
		ports: make(map[i2c.Port]*port),
		cfgs:  make(map[i2c.Port]i2c.Config),
	}
}

// Configure stages the electrical parameters. Pin muxing and pull-ups
// are fixed by the device tree on this platform, so only the values
// the kernel lets userspace set are applied later, at Install time.
func (d *Driver) Configure(p i2c.Port, cfg i2c.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfgs[p] = cfg
	return nil
}

func (d *Driver) Install(p i2c.Port, mode i2c.Mode) error {
	if mode != i2c.ModeMaster {
		return fmt.Errorf("%w: devfs port %d only supports master mode", i2c.ErrUnsupported, p)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.ports[p]; ok {
		return fmt.Errorf("%w: port %d already installed", i2c.ErrFault, p)
	}
	pt, err := openPort(p, d.cfgs[p])
	if err != nil {
		return err
	}
	d.ports[p] = pt
	dlog.Debugf("installed port %d", p)
	return nil
}

// Remove closes the port's device file. Removing a port that was never
// installed is a no-op.
func (d *Driver) Remove(p i2c.Port) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	pt, ok := d.ports[p]
	if !ok {
		return nil
	}
	delete(d.ports, p)
	return pt.close()
}

func (d *Driver) port(p i2c.Port) (*port, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pt, ok := d.ports[p]
	if !ok {
		return nil, fmt.Errorf("%w: port %d not installed", i2c.ErrFault, p)
	}
	return pt, nil
}

// Submit lowers the sequence into i2c_msg segments and pushes them to
// the kernel in one I2C_RDWR transaction.
func (d *Driver) Submit(p i2c.Port, seq *i2c.Sequence, timeout time.Duration) error {
	pt, err := d.port(p)
	if err != nil {
		return err
	}
	msgs, err := seq.Messages()
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	return pt.submit(msgs, timeout)
}
