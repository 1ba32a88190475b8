// Package eeprom talks to 24-series inventory EEPROMs through the
// shared access layer. The memory offset travels as selector bytes in
// front of the payload; writes are chunked on page boundaries.
package eeprom

import (
	"fmt"
	"time"

	"i2c_access/device/i2c"
	"i2c_access/log"
	"i2c_access/util"
)

var elog = log.Tag("eeprom")

const (
	// DefaultAddr is the board inventory EEPROM address.
	DefaultAddr = 0x50

	// DefaultPageSize covers the 24C32..24C256 parts used on the
	// boards.
	DefaultPageSize = 32

	// writeCycle is the datasheet worst-case self-timed write time.
	writeCycle = 5 * time.Millisecond
)

type EEPROM struct {
	acc      *i2c.Access
	dev      *i2c.Dev
	pageSize int
}

func New(acc *i2c.Access, dev *i2c.Dev, pageSize int) *EEPROM {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &EEPROM{acc: acc, dev: dev, pageSize: pageSize}
}

func (e *EEPROM) selector(off uint16) []byte {
	return []byte{byte(off >> 8), byte(off)}
}

// ReadAt fills buf starting at memory offset off.
func (e *EEPROM) ReadAt(off uint16, buf []byte) error {
	return e.acc.Read(e.dev, e.selector(off), buf)
}

// WriteAt writes data starting at off, splitting on page boundaries
// and waiting out the self-timed write cycle between pages.
func (e *EEPROM) WriteAt(off uint16, data []byte) error {
	for len(data) > 0 {
		n := e.pageSize - int(off)%e.pageSize
		if n > len(data) {
			n = len(data)
		}
		if err := e.acc.Write(e.dev, e.selector(off), data[:n]); err != nil {
			return err
		}
		time.Sleep(writeCycle)
		off += uint16(n)
		data = data[n:]
	}
	return nil
}

// inventoryRecord is the on-chip layout of the board identity block,
// packed little-endian at offset 0.
type inventoryRecord struct {
	Magic           uint32
	Layout          uint16
	BoardName       [16]byte
	SerialNumber    [16]byte
	PartNumber      [16]byte
	BoardRevision   [8]byte
	ManufactureInfo [16]byte
}

const (
	inventoryMagic  = 0x564e4942 // "BINV"
	inventoryLayout = 1
	inventorySize   = 78
)

// BoardInfo is the decoded board inventory.
type BoardInfo struct {
	BoardName       string
	SerialNumber    string
	PartNumber      string
	BoardRevision   string
	ManufactureInfo string
}

// ReadInventory reads and decodes the identity block.
func (e *EEPROM) ReadInventory() (*BoardInfo, error) {
	raw := make([]byte, inventorySize)
	if err := e.ReadAt(0, raw); err != nil {
		return nil, err
	}

	var rec inventoryRecord
	if _, err := util.Unpack(raw, &rec); err != nil {
		return nil, err
	}
	if rec.Magic != inventoryMagic {
		return nil, fmt.Errorf("no inventory record at 0x%02x on port %d (magic %08x)",
			e.dev.Addr, e.dev.Port, rec.Magic)
	}
	if rec.Layout != inventoryLayout {
		elog.Warnf("inventory layout %d, expected %d; decoding anyway", rec.Layout, inventoryLayout)
	}

	return &BoardInfo{
		BoardName:       util.CString(rec.BoardName[:]),
		SerialNumber:    util.CString(rec.SerialNumber[:]),
		PartNumber:      util.CString(rec.PartNumber[:]),
		BoardRevision:   util.CString(rec.BoardRevision[:]),
		ManufactureInfo: util.CString(rec.ManufactureInfo[:]),
	}, nil
}

// WriteInventory encodes and stores the identity block.
func (e *EEPROM) WriteInventory(bi *BoardInfo) error {
	rec := inventoryRecord{
		Magic:  inventoryMagic,
		Layout: inventoryLayout,
	}
	copy(rec.BoardName[:], bi.BoardName)
	copy(rec.SerialNumber[:], bi.SerialNumber)
	copy(rec.PartNumber[:], bi.PartNumber)
	copy(rec.BoardRevision[:], bi.BoardRevision)
	copy(rec.ManufactureInfo[:], bi.ManufactureInfo)

	raw, err := util.Pack(&rec)
	if err != nil {
		return err
	}
	return e.WriteAt(0, raw)
}
