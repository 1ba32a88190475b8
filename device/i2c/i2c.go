// Package i2c serializes access to the shared two-wire bus controllers
// so independent tasks holding handles to different peripherals on the
// same port cannot interleave bus cycles. Each handle carries its own
// electrical configuration; the port hardware is reconfigured lazily,
// only when a transaction's configuration differs from the one last
// applied to that port.
package i2c

import (
	"fmt"
	"sync"
	"time"

	"i2c_access/log"
)

var alog = log.Tag("i2c")

const (
	defaultLockTimeout = 1000 * time.Millisecond
	defaultXferTimeout = 1000 * time.Millisecond
)

// Params sizes and tunes an Access table. Zero values fall back to the
// defaults above.
type Params struct {
	Ports       int
	LockTimeout time.Duration
	XferTimeout time.Duration
}

// Access is the process-wide resource table for the bus controllers:
// one lock and one applied-configuration slot per port, plus the
// driver that owns the hardware. All public operations are safe for
// concurrent use; everything touching a port's cache slot or hardware
// runs under that port's lock.
type Access struct {
	drv     PortDriver
	lockTmo time.Duration
	xferTmo time.Duration

	locks   []chan struct{}
	cfgs    []Config // configuration last applied to the port hardware
	applied []bool   // cfgs[p] valid; false forces reconfiguration

	mu     sync.Mutex
	closed bool // set by Close; new transactions fail fast
}

// New builds the access table for drv. Must be called once before any
// device I/O; Close releases everything it allocates.
func New(drv PortDriver, p Params) (*Access, error) {
	if drv == nil {
		return nil, fmt.Errorf("%w: nil port driver", ErrInvalidArg)
	}
	if p.Ports <= 0 {
		return nil, fmt.Errorf("%w: port count %d", ErrInvalidArg, p.Ports)
	}
	if p.LockTimeout <= 0 {
		p.LockTimeout = defaultLockTimeout
	}
	if p.XferTimeout <= 0 {
		p.XferTimeout = defaultXferTimeout
	}

	a := &Access{
		drv:     drv,
		lockTmo: p.LockTimeout,
		xferTmo: p.XferTimeout,
		locks:   make([]chan struct{}, p.Ports),
		cfgs:    make([]Config, p.Ports),
		applied: make([]bool, p.Ports),
	}
	for i := range a.locks {
		a.locks[i] = make(chan struct{}, 1)
	}
	return a, nil
}

// Ports returns the number of ports the table was built for.
func (a *Access) Ports() int {
	return len(a.locks)
}

// lockPort takes the raw port semaphore, waiting at most the
// configured bound.
func (a *Access) lockPort(p Port) error {
	t := time.NewTimer(a.lockTmo)
	defer t.Stop()
	select {
	case a.locks[p] <- struct{}{}:
		return nil
	case <-t.C:
		alog.Errorf("could not take port %d lock within %v", p, a.lockTmo)
		return fmt.Errorf("%w: port %d lock", ErrTimeout, p)
	}
}

// acquire takes the port lock for a transaction.
func (a *Access) acquire(p Port) error {
	if p < 0 || int(p) >= len(a.locks) {
		return fmt.Errorf("%w: port %d", ErrInvalidArg, p)
	}
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: access table closed", ErrFault)
	}
	return a.lockPort(p)
}

// release gives the port lock back. Failure here means acquire/release
// pairing was broken somewhere, which is a logic error, not a
// recoverable condition.
func (a *Access) release(p Port) error {
	select {
	case <-a.locks[p]:
		return nil
	default:
		alog.Errorf("could not give port %d lock", p)
		return fmt.Errorf("%w: port %d lock not held", ErrFault, p)
	}
}

// setupPort reconciles the port hardware with cfg. Caller must hold
// the port lock. Hot path is the full-field comparison against the
// configuration last applied; the driver is only cycled on a mismatch.
func (a *Access) setupPort(p Port, cfg Config) error {
	if a.applied[p] && cfg.Equal(a.cfgs[p]) {
		return nil
	}

	// Invalidate first: if any step below fails the next transaction
	// must retry reconciliation instead of trusting a stale slot.
	a.applied[p] = false

	want := cfg
	want.Mode = ModeMaster // slave topologies are not supported

	if err := a.drv.Remove(p); err != nil {
		return err
	}
	if err := a.drv.Configure(p, want); err != nil {
		return err
	}
	if err := a.drv.Install(p, want.Mode); err != nil {
		return err
	}

	a.cfgs[p] = cfg
	a.applied[p] = true
	return nil
}

// Read performs a combined-format read from dev: optionally write the
// selector bytes (e.g. a register index), then repeated-start, address
// for read, and read len(in) bytes with the final byte not
// acknowledged. sel may be nil for register-less peripherals.
func (a *Access) Read(dev *Dev, sel []byte, in []byte) (err error) {
	if dev == nil || len(in) == 0 {
		return ErrInvalidArg
	}

	if err = a.acquire(dev.Port); err != nil {
		return err
	}
	defer func() {
		if rerr := a.release(dev.Port); rerr != nil && err == nil {
			err = rerr
		}
	}()

	if err = a.setupPort(dev.Port, dev.Cfg); err != nil {
		return err
	}

	seq := NewSequence()
	if len(sel) > 0 {
		seq.Start()
		seq.WriteByte(dev.Addr<<1, true)
		seq.Write(sel, true)
	}
	seq.Start()
	seq.WriteByte(dev.Addr<<1|1, true)
	seq.Read(in, true)
	seq.Stop()

	if err = a.drv.Submit(dev.Port, seq, a.xferTmo); err != nil {
		alog.Errorf("could not read from device [0x%02x at %d]: %v", dev.Addr, dev.Port, err)
	}
	return err
}

// Write sends the selector bytes (if any) followed by out to dev in a
// single acknowledged write transaction.
func (a *Access) Write(dev *Dev, sel []byte, out []byte) (err error) {
	if dev == nil || len(out) == 0 {
		return ErrInvalidArg
	}

	if err = a.acquire(dev.Port); err != nil {
		return err
	}
	defer func() {
		if rerr := a.release(dev.Port); rerr != nil && err == nil {
			err = rerr
		}
	}()

	if err = a.setupPort(dev.Port, dev.Cfg); err != nil {
		return err
	}

	seq := NewSequence()
	seq.Start()
	seq.WriteByte(dev.Addr<<1, true)
	if len(sel) > 0 {
		seq.Write(sel, true)
	}
	seq.Write(out, true)
	seq.Stop()

	if err = a.drv.Submit(dev.Port, seq, a.xferTmo); err != nil {
		alog.Errorf("could not write to device [0x%02x at %d]: %v", dev.Addr, dev.Port, err)
	}
	return err
}

// Close tears the table down: per port, take the lock, release the
// driver's hardware resources and give the lock back. Teardown is
// best-effort across ports; the first error is returned after every
// port has been attempted. Transactions started after Close begins
// fail fast with ErrFault; callers should quiesce I/O first. Close is
// idempotent.
func (a *Access) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var firstErr error
	for i := range a.locks {
		p := Port(i)
		if err := a.lockPort(p); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := a.drv.Remove(p); err != nil {
			alog.Errorf("could not remove driver on port %d: %v", p, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		a.applied[i] = false
		if err := a.release(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
