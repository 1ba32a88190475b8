// Package temperature reads the LM75-class board sensors through the
// shared access layer.
package temperature

import (
	"i2c_access/device/i2c"
	"i2c_access/log"
)

var tlog = log.Tag("temp")

const (
	// ADDR_TEMP_SENSOR is the base sensor address; boards strap the
	// low address bits for additional sensors.
	ADDR_TEMP_SENSOR = 0x48

	regTemp = 0x00
)

// SensorAddrs returns the strapped addresses of the board's sensor
// row, base first.
func SensorAddrs(n int) []uint8 {
	addrs := make([]uint8, 0, n)
	for i := 0; i < n; i++ {
		addrs = append(addrs, uint8(ADDR_TEMP_SENSOR+i))
	}
	return addrs
}

type Sensor struct {
	acc      *i2c.Access
	dev      *i2c.Dev
	failures int
}

func NewSensor(acc *i2c.Access, dev *i2c.Dev) *Sensor {
	return &Sensor{acc: acc, dev: dev}
}

// ReadC returns the sensor temperature in degrees Celsius: signed
// whole degrees in the first byte, binary fraction in the second.
func (s *Sensor) ReadC() (float64, error) {
	var temp [2]byte
	if err := s.acc.Read(s.dev, []byte{regTemp}, temp[:]); err != nil {
		s.failures++
		if s.failures < 2 || s.failures%100 == 0 { // Don't spam the log
			tlog.Errorf("error reading temperature sensor 0x%02x on port %d: %v",
				s.dev.Addr, s.dev.Port, err)
		}
		return 0, err
	}
	s.failures = 0

	return float64(int8(temp[0])) + float64(temp[1])/256, nil
}
