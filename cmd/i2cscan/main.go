// i2cscan probes a bus port for responding peripherals. It is a field
// diagnostic for the access layer, not part of its API.
package main

import (
	"flag"
	"fmt"
	"os"

	"i2c_access/config"
	"i2c_access/device/i2c"
	"i2c_access/device/i2c/devfs"
	"i2c_access/device/i2c/periphbus"
	"i2c_access/device/i2c/sysfsbus"
	"i2c_access/log"
	"i2c_access/version"

	"periph.io/x/conn/v3/physic"
)

const (
	scanFirst = 0x03
	scanLast  = 0x77
)

func main() {
	var (
		port        = flag.Int("port", 0, "bus port to scan")
		backend     = flag.String("backend", "devfs", "port driver: devfs, periph or sysfs (sysfs probes without repeated start; some adapters answer reads for absent addresses)")
		speed       = flag.Int("speed", 100000, "bus clock in Hz")
		scl         = flag.Int("scl", 0, "SCL pin offset (recovery only)")
		sda         = flag.Int("sda", 0, "SDA pin offset (recovery only)")
		recoverChip = flag.String("recover", "", "gpiochip to pulse for bus recovery before scanning")
		debug       = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()
	log.SetDebug(*debug)
	log.Infof("i2cscan %s (%s)", version.Version, version.GitHash)

	var drv i2c.PortDriver
	switch *backend {
	case "devfs":
		drv = devfs.New()
	case "periph":
		drv = periphbus.New()
	case "sysfs":
		drv = sysfsbus.New()
		log.Infof("sysfs backend cannot probe with repeated start; scan results may include false positives")
	default:
		log.Errorf("unknown backend %q", *backend)
		os.Exit(1)
	}

	cfg := i2c.Config{
		SCL:   *scl,
		SDA:   *sda,
		Speed: physic.Frequency(*speed) * physic.Hertz,
	}

	if *recoverChip != "" {
		if err := i2c.Recover(*recoverChip, cfg); err != nil {
			log.Errorf("bus recovery failed: %v", err)
			os.Exit(1)
		}
	}

	bc := config.Load()
	ports := bc.PortCount
	if *port >= ports {
		ports = *port + 1
	}
	acc, err := i2c.New(drv, i2c.Params{
		Ports:       ports,
		LockTimeout: bc.LockTimeout,
		XferTimeout: bc.XferTimeout,
	})
	if err != nil {
		log.Errorf("access table: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := acc.Close(); err != nil {
			log.Errorf("teardown: %v", err)
		}
	}()

	var found []uint8
	var probe [1]byte
	for addr := uint8(scanFirst); addr <= scanLast; addr++ {
		dev := &i2c.Dev{Port: i2c.Port(*port), Addr: addr, Cfg: cfg}
		if err := acc.Read(dev, nil, probe[:]); err == nil {
			found = append(found, addr)
		}
	}

	if len(found) == 0 {
		fmt.Printf("port %d: no devices found\n", *port)
		return
	}
	fmt.Printf("port %d: %d device(s)\n", *port, len(found))
	for _, a := range found {
		fmt.Printf("  0x%02x\n", a)
	}
}
