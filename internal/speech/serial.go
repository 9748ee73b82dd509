package speech

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialLine is a Line on a real serial port.
type SerialLine struct {
	port serial.Port
	name string
}

// OpenSerial opens portName at baud, 8N1.
func OpenSerial(portName string, baud int) (*SerialLine, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open speech serial %s: %w", portName, err)
	}
	return &SerialLine{port: port, name: portName}, nil
}

// Write sends p to the chip.
func (s *SerialLine) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("speech serial %s: %w", s.name, err)
	}
	return n, nil
}

// Close releases the port.
func (s *SerialLine) Close() error {
	return s.port.Close()
}

// Ports lists serial ports present on the host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
