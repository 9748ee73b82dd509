// Package eeprom provides byte-addressable non-volatile stores for the
// sample log. File keeps a fixed-size image on disk; Mem is for tests and
// dry runs.
package eeprom

import (
	"errors"
	"fmt"
)

// Erased is the value of a never-written cell.
const Erased = 0xFF

// ErrAddress is returned for an address outside the store.
var ErrAddress = errors.New("eeprom: address out of range")

func checkAddr(addr, size int) error {
	if addr < 0 || addr >= size {
		return fmt.Errorf("%w: %d (size %d)", ErrAddress, addr, size)
	}
	return nil
}

// Mem is an in-memory store that starts erased.
type Mem struct {
	data []byte
}

// NewMem returns an erased store of size bytes.
func NewMem(size int) *Mem {
	m := &Mem{data: make([]byte, size)}
	for i := range m.data {
		m.data[i] = Erased
	}
	return m
}

// Size returns the store size in bytes.
func (m *Mem) Size() int { return len(m.data) }

// ReadAddr returns the byte at addr.
func (m *Mem) ReadAddr(addr int) (byte, error) {
	if err := checkAddr(addr, len(m.data)); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

// WriteAddr stores v at addr.
func (m *Mem) WriteAddr(addr int, v byte) error {
	if err := checkAddr(addr, len(m.data)); err != nil {
		return err
	}
	m.data[addr] = v
	return nil
}

// Bytes returns a copy of the contents.
func (m *Mem) Bytes() []byte {
	return append([]byte(nil), m.data...)
}
