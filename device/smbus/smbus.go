// Package smbus layers the SMBus register protocol, with optional
// packet error checking, on top of the shared bus access layer.
// Serialization and port reconfiguration are the access layer's job;
// this package only frames commands and data.
package smbus

import (
	"i2c_access/device/i2c"
)

// SysIF is the system interface to one SMBus segment: a port on the
// shared access table plus the electrical configuration its devices
// need.
type SysIF struct {
	acc      *i2c.Access
	port     i2c.Port
	cfg      i2c.Config
	useTxPEC bool
	useRxPEC bool
}

func New(acc *i2c.Access, port i2c.Port, cfg i2c.Config) *SysIF {
	return &SysIF{
		acc:  acc,
		port: port,
		cfg:  cfg,
	}
}

// SetRxPEC enables or disables PEC verification on reads.
func (s *SysIF) SetRxPEC(usePEC bool) {
	s.useRxPEC = usePEC
}

// SetTxPEC enables or disables PEC generation on writes.
func (s *SysIF) SetTxPEC(usePEC bool) {
	s.useTxPEC = usePEC
}

func (s *SysIF) dev(addr uint8) *i2c.Dev {
	return &i2c.Dev{Port: s.port, Addr: addr, Cfg: s.cfg}
}

// ReadN reads nbytes following command cmd. With RxPEC enabled the
// last requested byte is the PEC and is verified against the rest.
func (s *SysIF) ReadN(addr uint8, cmd uint8, nbytes int) ([]byte, error) {
	read := make([]byte, nbytes)
	if err := s.acc.Read(s.dev(addr), []byte{cmd}, read); err != nil {
		return nil, err
	}

	if s.useRxPEC {
		data := append([]byte{cmd}, read...)
		if err := CheckPEC(addr, READ, data); err != nil {
			return nil, err
		}
	}
	return read, nil
}

// WriteNwC writes cmd followed by data, appending the PEC when
// enabled, and returns the number of bytes put on the wire. The
// access layer reports no transfer count, so the frame length stands
// in for it.
func (s *SysIF) WriteNwC(addr uint8, cmd uint8, data []byte) (int, error) {
	bytes := append([]byte{cmd}, data...)

	if s.useTxPEC {
		var err error
		bytes, err = AppendPEC(addr, WRITE, bytes)
		if err != nil {
			return 0, err
		}
	}

	if err := s.acc.Write(s.dev(addr), nil, bytes); err != nil {
		return 0, err
	}
	return len(bytes), nil
}

// WriteN writes cmd followed by data and doesn't care about the count.
func (s *SysIF) WriteN(addr uint8, cmd uint8, data []byte) error {
	_, err := s.WriteNwC(addr, cmd, data)
	return err
}

// ReadByte reads one data byte following command cmd.
func (s *SysIF) ReadByte(addr uint8, cmd uint8) (byte, error) {
	ret, err := s.ReadN(addr, cmd, 1)
	if err != nil {
		return 0, err
	}
	return ret[0], nil
}

// WriteByte writes one data byte following command cmd.
func (s *SysIF) WriteByte(addr uint8, cmd uint8, data byte) error {
	return s.WriteN(addr, cmd, []byte{data})
}

// ReadWord reads a little-endian word following command cmd.
func (s *SysIF) ReadWord(addr uint8, cmd uint8) (uint16, error) {
	ret, err := s.ReadN(addr, cmd, 2)
	if err != nil {
		return 0, err
	}
	return uint16(ret[0]) | uint16(ret[1])<<8, nil
}

// WriteWord writes a little-endian word following command cmd.
func (s *SysIF) WriteWord(addr uint8, cmd uint8, data uint16) error {
	return s.WriteN(addr, cmd, []byte{uint8(data), uint8(data >> 8)})
}
