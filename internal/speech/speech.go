// Package speech talks to the speech-synthesis chip over a serial line and
// holds the fixed sound vocabulary the toy plays.
package speech

import "github.com/sweeney/sensational-toy/internal/logic"

// DefaultBaudRate is what the chip expects out of reset.
const DefaultBaudRate = 9600

// Sound effect commands.
var (
	HumiditySound = logic.Sound{201}
	RangeSound    = logic.Sound{220}
	GasSound      = logic.Sound{240}
)

// Greeting is the phrase spoken once at startup.
var Greeting = []byte{
	20, 96, 21, 114, 22, 88, 23, 5, 8, 135, 8, 146, 5, 128, 153, 5, 170, 154,
	8, 188, 5, 152, 5, 170, 8, 128, 146, 8, 135, 8, 144, 5, 8, 191, 162, 5,
	8, 134, 187,
}

// Sounds returns the alarm vocabulary.
func Sounds() logic.Sounds {
	return logic.Sounds{
		Humidity: HumiditySound,
		Range:    RangeSound,
		Gas:      GasSound,
	}
}

// Line is a write-only serial connection to the chip.
type Line interface {
	Write(p []byte) (int, error)
	Close() error
}
