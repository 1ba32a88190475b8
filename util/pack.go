package util

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// Pack serializes the given values (structs, fixed arrays, scalars)
// into a little-endian byte slice, field order preserved.
func Pack(elts ...interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, e := range elts {
		if err := packValue(buf, reflect.ValueOf(e)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func packValue(buf io.Writer, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return fmt.Errorf("cannot pack nil %s", v.Type().String())
		}
		return packValue(buf, v.Elem())
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := packValue(buf, v.Field(i)); err != nil {
				return err
			}
		}
	default:
		return binary.Write(buf, binary.LittleEndian, v.Interface())
	}
	return nil
}

// Unpack fills elts from b and returns the number of bytes consumed.
func Unpack(b []byte, elts ...interface{}) (int, error) {
	buf := bytes.NewBuffer(b)
	err := UnpackBuf(buf, elts...)
	return len(b) - buf.Len(), err
}

// UnpackBuf fills elts from buf. Each element must be a pointer.
func UnpackBuf(buf io.Reader, elts ...interface{}) error {
	for _, e := range elts {
		v := reflect.ValueOf(e)
		if v.Kind() != reflect.Ptr || v.IsNil() {
			return fmt.Errorf("unpack target must be a non-nil pointer, got %s", v.Type().String())
		}
		if err := unpackValue(buf, v.Elem()); err != nil {
			return err
		}
	}
	return nil
}

func unpackValue(buf io.Reader, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := unpackValue(buf, v.Field(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return binary.Read(buf, binary.LittleEndian, v.Addr().Interface())
	}
}
