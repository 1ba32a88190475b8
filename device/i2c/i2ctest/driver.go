// Package i2ctest provides a recording, simulated port driver for
// unit tests: it counts driver calls, flattens submitted sequences
// into a readable trace and serves canned read data, with hooks to
// inject errors and delays.
package i2ctest

import (
	"fmt"
	"sync"
	"time"

	"i2c_access/device/i2c"
)

// Driver implements i2c.PortDriver entirely in memory.
type Driver struct {
	mu sync.Mutex

	Configures int
	Installs   int
	Removes    int
	Submits    int

	installed map[i2c.Port]bool
	cfgs      map[i2c.Port]i2c.Config

	// Trace holds one flattened op list per submitted sequence, e.g.
	// ["start", "w:b4", "w:10", "start", "w:b5", "r:2", "stop"].
	Trace [][]string

	// ReadData is copied into read buffers, repeating as needed.
	ReadData []byte

	// Errors to inject; nil means success.
	ConfigureErr error
	InstallErr   error
	RemoveErr    error
	SubmitErr    error

	// SubmitHook, when set, runs inside Submit after the trace is
	// recorded; its error is returned to the caller. Used to model
	// slow or concurrent hardware.
	SubmitHook func(p i2c.Port, seq *i2c.Sequence) error
}

func New() *Driver {
	return &Driver{
		installed: make(map[i2c.Port]bool),
		cfgs:      make(map[i2c.Port]i2c.Config),
	}
}

func (d *Driver) Configure(p i2c.Port, cfg i2c.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Configures++
	if d.ConfigureErr != nil {
		return d.ConfigureErr
	}
	d.cfgs[p] = cfg
	return nil
}

func (d *Driver) Install(p i2c.Port, mode i2c.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Installs++
	if d.InstallErr != nil {
		return d.InstallErr
	}
	if mode != i2c.ModeMaster {
		return fmt.Errorf("%w: mode %d", i2c.ErrUnsupported, mode)
	}
	d.installed[p] = true
	return nil
}

func (d *Driver) Remove(p i2c.Port) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Removes++
	if d.RemoveErr != nil {
		return d.RemoveErr
	}
	delete(d.installed, p)
	return nil
}

func (d *Driver) Submit(p i2c.Port, seq *i2c.Sequence, timeout time.Duration) error {
	d.mu.Lock()
	d.Submits++
	if !d.installed[p] {
		d.mu.Unlock()
		return fmt.Errorf("%w: port %d not installed", i2c.ErrFault, p)
	}
	d.Trace = append(d.Trace, Flatten(seq))

	ri := 0
	for _, op := range seq.Ops {
		if op.Kind == i2c.OpRead {
			for i := range op.Buf {
				if len(d.ReadData) > 0 {
					op.Buf[i] = d.ReadData[ri%len(d.ReadData)]
					ri++
				}
			}
		}
	}
	submitErr := d.SubmitErr
	hook := d.SubmitHook
	d.mu.Unlock()

	if submitErr != nil {
		return submitErr
	}
	if hook != nil {
		return hook(p, seq)
	}
	return nil
}

// InstalledConfig returns the configuration last staged for p.
func (d *Driver) InstalledConfig(p i2c.Port) i2c.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfgs[p]
}

// LastTrace returns the flattened form of the most recent submission.
func (d *Driver) LastTrace() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Trace) == 0 {
		return nil
	}
	return d.Trace[len(d.Trace)-1]
}

// Counts returns configure/install/remove/submit call totals.
func (d *Driver) Counts() (int, int, int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Configures, d.Installs, d.Removes, d.Submits
}

// Flatten renders a sequence as readable tokens for assertions.
func Flatten(seq *i2c.Sequence) []string {
	var out []string
	for _, op := range seq.Ops {
		switch op.Kind {
		case i2c.OpStart:
			out = append(out, "start")
		case i2c.OpStop:
			out = append(out, "stop")
		case i2c.OpWrite:
			for _, b := range op.Data {
				out = append(out, fmt.Sprintf("w:%02x", b))
			}
		case i2c.OpRead:
			tok := fmt.Sprintf("r:%d", len(op.Buf))
			if op.LastNACK {
				tok += ":nack"
			}
			out = append(out, tok)
		}
	}
	return out
}
