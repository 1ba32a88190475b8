package util

import (
	"fmt"
	"strconv"
)

func ToUint(x interface{}) (uint, error) {
	strVal := fmt.Sprintf("%v", x)
	intVal, err := strconv.ParseUint(strVal, 10, 64)
	return uint(intVal), err
}

// CString converts a fixed-size, NUL-padded byte field to a string.
func CString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
