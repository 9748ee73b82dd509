package sensor

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sweeney/sensational-toy/internal/logic"
)

// IIO attribute paths for the usual drivers on a Pi. The dht11 driver
// (also used for DHT22) reports relative humidity in milli-percent.
const (
	DefaultHumidityPath = "/sys/bus/iio/devices/iio:device0/in_humidityrelative_input"
	DefaultGasPath      = "/sys/bus/iio/devices/iio:device1/in_voltage0_raw"
)

// IIOChannel reads an integer attribute from the kernel IIO subsystem.
type IIOChannel struct {
	Path string
	// Divisor scales the raw value down; 0 means 1.
	Divisor int
}

// Read returns the attribute value divided by Divisor. The DHT driver
// fails reads with EIO or ETIMEDOUT when the sensor misses a conversion;
// any read failure other than a missing attribute counts as not ready.
func (c IIOChannel) Read() (int, error) {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("iio attribute %s: %w", c.Path, err)
		}
		return 0, fmt.Errorf("iio read %s: %v: %w", c.Path, err, logic.ErrSensorNotReady)
	}
	raw, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("iio parse %s: %w", c.Path, err)
	}
	d := c.Divisor
	if d == 0 {
		d = 1
	}
	return raw / d, nil
}
