//go:build linux
// +build linux

package devfs

import (
	"fmt"
	"os"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"i2c_access/config"
	"i2c_access/device/i2c"
)

// i2c-dev ioctl numbers, from linux/i2c-dev.h.
const (
	ioctlRetries = 0x0701
	ioctlTimeout = 0x0702 // unit is 10 ms
	ioctlRdWr    = 0x0707

	msgFlagRead = 0x0001

	defaultRetries = 3
)

// i2cMsg mirrors struct i2c_msg.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// rdwrData mirrors struct i2c_rdwr_ioctl_data.
type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

type port struct {
	f *os.File
}

func openPort(p i2c.Port, cfg i2c.Config) (*port, error) {
	path := fmt.Sprintf(config.DevicePattern, p)
	f, err := os.OpenFile(path, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	pt := &port{f: f}
	if err := pt.ioctl(ioctlRetries, defaultRetries); err != nil {
		f.Close()
		return nil, fmt.Errorf("set retries on %s: %w", path, err)
	}
	// Bus speed and pull-ups are kernel/device-tree properties; cfg is
	// accepted for reconciliation purposes but not programmable here.
	_ = cfg
	return pt, nil
}

func (pt *port) close() error {
	return pt.f.Close()
}

func (pt *port) ioctl(req uintptr, arg uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, pt.f.Fd(), req, arg); errno != 0 {
		return errno
	}
	return nil
}

func (pt *port) submit(msgs []i2c.Message, timeout time.Duration) error {
	ticks := int(timeout / (10 * time.Millisecond))
	if ticks < 1 {
		ticks = 1
	}
	if err := pt.ioctl(ioctlTimeout, uintptr(ticks)); err != nil {
		return fmt.Errorf("set bus timeout: %w", err)
	}

	kmsgs := make([]i2cMsg, len(msgs))
	for i, m := range msgs {
		kmsgs[i].addr = uint16(m.Addr)
		if m.Read {
			if len(m.R) == 0 {
				return fmt.Errorf("%w: empty read segment", i2c.ErrInvalidArg)
			}
			kmsgs[i].flags = msgFlagRead
			kmsgs[i].len = uint16(len(m.R))
			kmsgs[i].buf = uintptr(unsafe.Pointer(&m.R[0]))
		} else {
			if len(m.W) == 0 {
				return fmt.Errorf("%w: empty write segment", i2c.ErrInvalidArg)
			}
			kmsgs[i].len = uint16(len(m.W))
			kmsgs[i].buf = uintptr(unsafe.Pointer(&m.W[0]))
		}
	}

	data := rdwrData{
		msgs:  uintptr(unsafe.Pointer(&kmsgs[0])),
		nmsgs: uint32(len(kmsgs)),
	}
	err := pt.ioctl(ioctlRdWr, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(msgs)
	runtime.KeepAlive(kmsgs)

	if err == unix.ETIMEDOUT {
		return fmt.Errorf("%w: bus transfer", i2c.ErrTimeout)
	}
	return err
}
