// Package logic contains the tick-driven core of the toy: timer, sound lock,
// alarm evaluation, the bounded sample log and the memory-full pulse.
// This package has NO external dependencies (no GPIO, serial, MQTT, OS, or
// time.Sleep). Everything advances one step per Tick call.
package logic

// TickModulus is where the tick counter wraps back to zero.
const TickModulus = 1000

// Alarm identifies which alarm source holds (or requested) the sound lock.
type Alarm string

const (
	AlarmNone     Alarm = ""
	AlarmHumidity Alarm = "HUMIDITY"
	AlarmRange    Alarm = "RANGE"
	AlarmGas      Alarm = "GAS"
)

// Sound is an opaque command sequence for the speech chip.
type Sound []byte

// SerialOutput transmits sound commands. Fire-and-forget.
type SerialOutput interface {
	Write(p []byte) (int, error)
}

// StatusLight is the RGB status LED, driven all-on while a sound plays.
type StatusLight interface {
	SetRGB(r, g, b bool) error
}

// Dimmer drives an analog-intensity indicator channel (0..255).
type Dimmer interface {
	SetBrightness(level uint8) error
}

// Bargraph lights the first n segments of the bargraph.
type Bargraph interface {
	Fill(n int) error
}

// Store is a byte-addressable, fixed-size, non-volatile memory.
type Store interface {
	Size() int
	ReadAddr(addr int) (byte, error)
	WriteAddr(addr int, v byte) error
}

// Host receives a full dump of the storage log.
type Host interface {
	// Ready reports whether a reader is attached right now.
	Ready() bool
	// Receive delivers every stored sample in address order. It returns
	// ErrHostBusy while delivery is still unconfirmed; the same samples
	// are offered again on the next drain.
	Receive(samples []byte) error
}

// Reading is the last known value of one sensor.
type Reading struct {
	Value int
	Valid bool
}

// Sample is one tick's sensor input. A nil pointer means the sensor
// reported not ready this tick.
type Sample struct {
	Humidity *int // percent, 0..100
	RangeCM  *int // centimetres
	Gas      *int // raw analog level
}

// Readings is the carried-forward view of all sensors.
type Readings struct {
	Humidity Reading
	RangeCM  Reading
	Gas      Reading
}

// Thresholds configure when each alarm fires. Gas <= 0 disables the gas alarm.
type Thresholds struct {
	Humidity int // fire when humidity >= Humidity
	RangeCM  int // fire when range <= RangeCM
	Gas      int // fire when gas >= Gas
}

// Sounds maps each alarm to the bytes sent to the speech chip.
type Sounds struct {
	Humidity Sound
	Range    Sound
	Gas      Sound
}

// Counts tracks alarm and storage activity since startup.
type Counts struct {
	HumidityAlarms int
	RangeAlarms    int
	GasAlarms      int
	Dropped        int
	Samples        int
	Drains         int
	DrainAborts    int
}

// Value returns a Sample field pointer for v.
func Value(v int) *int { return &v }
