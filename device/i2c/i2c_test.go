package i2c_test

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"i2c_access/device/i2c"
	"i2c_access/device/i2c/i2ctest"
)

func newAccess(t *testing.T, drv *i2ctest.Driver, ports int) *i2c.Access {
	t.Helper()
	acc, err := i2c.New(drv, i2c.Params{Ports: ports})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return acc
}

func testCfg() i2c.Config {
	return i2c.Config{
		SCL:       22,
		SDA:       21,
		SCLPullup: true,
		SDAPullup: true,
		Speed:     100 * physic.KiloHertz,
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	if _, err := i2c.New(nil, i2c.Params{Ports: 1}); !errors.Is(err, i2c.ErrInvalidArg) {
		t.Errorf("nil driver: got %v, want ErrInvalidArg", err)
	}
	if _, err := i2c.New(i2ctest.New(), i2c.Params{Ports: 0}); !errors.Is(err, i2c.ErrInvalidArg) {
		t.Errorf("zero ports: got %v, want ErrInvalidArg", err)
	}
}

func TestInvalidArgsDoNotTouchDriver(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 1)
	dev := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: testCfg()}
	buf := make([]byte, 2)

	if err := acc.Read(nil, nil, buf); !errors.Is(err, i2c.ErrInvalidArg) {
		t.Errorf("Read nil dev: got %v", err)
	}
	if err := acc.Read(dev, nil, nil); !errors.Is(err, i2c.ErrInvalidArg) {
		t.Errorf("Read nil buf: got %v", err)
	}
	if err := acc.Read(dev, nil, buf[:0]); !errors.Is(err, i2c.ErrInvalidArg) {
		t.Errorf("Read empty buf: got %v", err)
	}
	if err := acc.Write(nil, nil, buf); !errors.Is(err, i2c.ErrInvalidArg) {
		t.Errorf("Write nil dev: got %v", err)
	}
	if err := acc.Write(dev, nil, nil); !errors.Is(err, i2c.ErrInvalidArg) {
		t.Errorf("Write nil data: got %v", err)
	}
	if err := acc.Write(dev, []byte{0x10}, buf[:0]); !errors.Is(err, i2c.ErrInvalidArg) {
		t.Errorf("Write empty data: got %v", err)
	}

	if c, i, r, s := drv.Counts(); c+i+r+s != 0 {
		t.Errorf("driver touched on invalid args: %d/%d/%d/%d", c, i, r, s)
	}
}

func TestWriteFraming(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 1)
	dev := &i2c.Dev{Port: 0, Addr: 0x5A, Cfg: testCfg()}

	if err := acc.Write(dev, []byte{0x10}, []byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := []string{"start", "w:b4", "w:10", "w:aa", "w:bb", "stop"}
	if got := drv.LastTrace(); !reflect.DeepEqual(got, want) {
		t.Errorf("trace = %v, want %v", got, want)
	}
}

func TestReadFraming(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 1)
	dev := &i2c.Dev{Port: 0, Addr: 0x5A, Cfg: testCfg()}
	buf := make([]byte, 2)

	if err := acc.Read(dev, []byte{0x10}, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []string{"start", "w:b4", "w:10", "start", "w:b5", "r:2:nack", "stop"}
	if got := drv.LastTrace(); !reflect.DeepEqual(got, want) {
		t.Errorf("trace = %v, want %v", got, want)
	}

	// Register-less device: no selector prefix, single start.
	if err := acc.Read(dev, nil, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	want = []string{"start", "w:b5", "r:2:nack", "stop"}
	if got := drv.LastTrace(); !reflect.DeepEqual(got, want) {
		t.Errorf("trace = %v, want %v", got, want)
	}
}

func TestReadFillsBuffer(t *testing.T) {
	drv := i2ctest.New()
	drv.ReadData = []byte{0x19, 0x80}
	acc := newAccess(t, drv, 1)
	dev := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: testCfg()}

	buf := make([]byte, 2)
	if err := acc.Read(dev, []byte{0x00}, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf[0] != 0x19 || buf[1] != 0x80 {
		t.Errorf("buf = %02x %02x", buf[0], buf[1])
	}
}

func TestIdenticalConfigsInstallOnce(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 1)

	devA := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: testCfg()}
	devB := &i2c.Dev{Port: 0, Addr: 0x49, Cfg: testCfg()}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, dev := range []*i2c.Dev{devA, devB} {
		wg.Add(1)
		go func(i int, dev *i2c.Dev) {
			defer wg.Done()
			buf := make([]byte, 2)
			for n := 0; n < 10; n++ {
				if err := acc.Read(dev, []byte{0x00}, buf); err != nil {
					errs[i] = err
					return
				}
			}
		}(i, dev)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("reader %d: %v", i, err)
		}
	}
	if _, installs, _, _ := drv.Counts(); installs != 1 {
		t.Errorf("installs = %d, want 1", installs)
	}
}

func TestAlternatingConfigsReinstallPerSwitch(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 1)

	slow := testCfg()
	fast := testCfg()
	fast.Speed = 400 * physic.KiloHertz

	devA := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: slow}
	devB := &i2c.Dev{Port: 0, Addr: 0x49, Cfg: fast}

	for i := 0; i < 2; i++ {
		if err := acc.Write(devA, nil, []byte{0x01}); err != nil {
			t.Fatalf("write A: %v", err)
		}
		if err := acc.Write(devB, nil, []byte{0x01}); err != nil {
			t.Fatalf("write B: %v", err)
		}
	}

	// Every write lands on a port configured for the other handle, so
	// each one pays a remove/install pair.
	if _, installs, removes, _ := drv.Counts(); installs != 4 || removes != 4 {
		t.Errorf("installs/removes = %d/%d, want 4/4", installs, removes)
	}
}

func TestTransactionsSerializedPerPort(t *testing.T) {
	drv := i2ctest.New()
	var inFlight int32
	drv.SubmitHook = func(p i2c.Port, seq *i2c.Sequence) error {
		if n := atomic.AddInt32(&inFlight, 1); n != 1 {
			return fmt.Errorf("%d transactions on the wire", n)
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	}
	acc := newAccess(t, drv, 1)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dev := &i2c.Dev{Port: 0, Addr: uint8(0x20 + i), Cfg: testCfg()}
			buf := make([]byte, 1)
			for n := 0; n < 5; n++ {
				if err := acc.Read(dev, nil, buf); err != nil {
					errs[i] = err
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: %v", i, err)
		}
	}
}

func TestLockReleasedAfterFailures(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 1)
	dev := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: testCfg()}
	buf := make([]byte, 1)

	if err := acc.Read(dev, nil, buf); err != nil {
		t.Fatalf("priming read: %v", err)
	}

	bang := errors.New("bus glitch")
	for i := 0; i < 5; i++ {
		drv.SubmitErr = bang
		if err := acc.Read(dev, nil, buf); !errors.Is(err, bang) {
			t.Fatalf("round %d: got %v, want injected error", i, err)
		}
		drv.SubmitErr = nil
		if err := acc.Write(dev, nil, []byte{0x00}); err != nil {
			t.Fatalf("round %d: lock not reusable: %v", i, err)
		}
	}
}

func TestReconcileFailureInvalidatesCache(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 1)
	dev := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: testCfg()}
	buf := make([]byte, 1)

	bang := errors.New("install refused")
	drv.InstallErr = bang
	if err := acc.Read(dev, nil, buf); !errors.Is(err, bang) {
		t.Fatalf("got %v, want install error", err)
	}
	if _, _, _, submits := drv.Counts(); submits != 0 {
		t.Fatalf("submit reached hardware after failed reconciliation")
	}

	// Same configuration must retry reconciliation, not skip it.
	drv.InstallErr = nil
	if err := acc.Read(dev, nil, buf); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if _, installs, _, _ := drv.Counts(); installs != 2 {
		t.Errorf("installs = %d, want 2", installs)
	}
}

func TestCloseBestEffortOnStuckPort(t *testing.T) {
	drv := i2ctest.New()
	release := make(chan struct{})
	drv.SubmitHook = func(p i2c.Port, seq *i2c.Sequence) error {
		if p == 0 {
			<-release
		}
		return nil
	}

	acc, err := i2c.New(drv, i2c.Params{Ports: 3, LockTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Install ports 1 and 2 so Close has something real to remove.
	for _, p := range []i2c.Port{1, 2} {
		dev := &i2c.Dev{Port: p, Addr: 0x48, Cfg: testCfg()}
		if err := acc.Write(dev, nil, []byte{0x00}); err != nil {
			t.Fatalf("port %d write: %v", p, err)
		}
	}
	// Park a transaction on port 0 so its lock stays held.
	done := make(chan error, 1)
	go func() {
		dev := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: testCfg()}
		done <- acc.Write(dev, nil, []byte{0x00})
	}()
	time.Sleep(10 * time.Millisecond)
	_, _, removesBefore, _ := drv.Counts()

	if err := acc.Close(); !errors.Is(err, i2c.ErrTimeout) {
		t.Errorf("Close = %v, want ErrTimeout", err)
	}
	if _, _, removes, _ := drv.Counts(); removes-removesBefore != 2 {
		t.Errorf("removed %d ports during teardown, want 2", removes-removesBefore)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("parked write: %v", err)
	}
}

func TestClosedTableFailsFast(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 2) // default 1s lock timeout
	dev := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: testCfg()}

	if err := acc.Write(dev, nil, []byte{0x00}); err != nil {
		t.Fatalf("priming write: %v", err)
	}
	if err := acc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	start := time.Now()
	if err := acc.Write(dev, nil, []byte{0x00}); !errors.Is(err, i2c.ErrFault) {
		t.Errorf("write after close = %v, want ErrFault", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("write after close took %v, should not wait out the lock timeout", elapsed)
	}

	if err := acc.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestDriverSeesMasterMode(t *testing.T) {
	drv := i2ctest.New()
	acc := newAccess(t, drv, 1)

	cfg := testCfg()
	cfg.Mode = i2c.ModeSlave // ignored: the layer only drives master topologies
	dev := &i2c.Dev{Port: 0, Addr: 0x48, Cfg: cfg}

	if err := acc.Write(dev, nil, []byte{0x00}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := drv.InstalledConfig(0).Mode; got != i2c.ModeMaster {
		t.Errorf("installed mode = %d, want master", got)
	}
}
