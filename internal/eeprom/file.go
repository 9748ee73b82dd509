package eeprom

import (
	"bytes"
	"fmt"
	"os"
)

// File is a store backed by a fixed-size image file. Each write goes
// straight to the file so the contents survive power loss the way an
// EEPROM cell does.
type File struct {
	f    *os.File
	size int
	// sync forces fsync after each write.
	sync bool
}

// OpenFile opens or creates the image at path. A new or short file is
// extended with erased cells; a longer file is rejected.
func OpenFile(path string, size int, sync bool) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open eeprom image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat eeprom image: %w", err)
	}
	have := int(info.Size())
	if have > size {
		f.Close()
		return nil, fmt.Errorf("eeprom image %s is %d bytes, expected %d", path, have, size)
	}
	if have < size {
		pad := bytes.Repeat([]byte{Erased}, size-have)
		if _, err := f.WriteAt(pad, int64(have)); err != nil {
			f.Close()
			return nil, fmt.Errorf("extend eeprom image: %w", err)
		}
	}
	return &File{f: f, size: size, sync: sync}, nil
}

// Size returns the store size in bytes.
func (s *File) Size() int { return s.size }

// ReadAddr returns the byte at addr.
func (s *File) ReadAddr(addr int) (byte, error) {
	if err := checkAddr(addr, s.size); err != nil {
		return 0, err
	}
	var b [1]byte
	if _, err := s.f.ReadAt(b[:], int64(addr)); err != nil {
		return 0, fmt.Errorf("eeprom read %d: %w", addr, err)
	}
	return b[0], nil
}

// WriteAddr stores v at addr.
func (s *File) WriteAddr(addr int, v byte) error {
	if err := checkAddr(addr, s.size); err != nil {
		return err
	}
	if _, err := s.f.WriteAt([]byte{v}, int64(addr)); err != nil {
		return fmt.Errorf("eeprom write %d: %w", addr, err)
	}
	if s.sync {
		if err := s.f.Sync(); err != nil {
			return fmt.Errorf("eeprom sync: %w", err)
		}
	}
	return nil
}

// Close releases the file.
func (s *File) Close() error {
	return s.f.Close()
}
