package smbus

import "fmt"

const (
	crcInit = 0x00
	READ    = 0x01
	WRITE   = 0x00
)

// crcTable is the CRC-8 (poly 0x07) lookup table PEC is defined over.
var crcTable [256]uint8

func init() {
	for i := 0; i < 256; i++ {
		crcTable[i] = CalcCRC8([]byte{uint8(i)})
	}
}

// CalcPEC calculates the PEC per SMBus protocol: the CRC-8 over the
// addressed byte stream, address and direction bit included.
func CalcPEC(addr uint8, rdwr uint8, data []byte) (uint8, error) {
	var crc uint8 = crcInit

	if rdwr > READ {
		return 0, fmt.Errorf("invalid rdwr value: %d", rdwr)
	}

	if addr > 0x7f {
		return 0, fmt.Errorf("invalid address value: %d", addr)
	}

	// PEC is calculated on the address and the data
	mydata := append([]byte{addr<<1 + rdwr}, data...)

	for _, b := range mydata {
		crc = crcTable[crc^b]
	}

	return crc, nil
}

// CalcCRC8 calculates the CRC8 on a byte array bit by bit.
func CalcCRC8(data []byte) uint8 {
	var crc uint8 = crcInit

	for _, b := range data {
		crc ^= b

		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}

	return crc
}

// AppendPEC appends the PEC to a byte array
func AppendPEC(addr, rdwr uint8, data []byte) ([]byte, error) {
	pec, err := CalcPEC(addr, rdwr, data)
	if err != nil {
		return nil, err
	}
	return append(data, pec), nil
}

// CheckPEC checks the PEC trailing a byte array
func CheckPEC(addr, rdwr uint8, data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("data slice too small")
	}

	pec, err := CalcPEC(addr, rdwr, data[:len(data)-1])
	if err != nil {
		return err
	}

	if pec != data[len(data)-1] {
		return fmt.Errorf("PEC mismatch: %02x != %02x", pec, data[len(data)-1])
	}

	return nil
}
