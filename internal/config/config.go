// Package config loads the daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/sensational-toy/internal/gpio"
	"github.com/sweeney/sensational-toy/internal/logic"
	"github.com/sweeney/sensational-toy/internal/sensor"
	"github.com/sweeney/sensational-toy/internal/speech"
)

// Config represents the daemon configuration.
type Config struct {
	TickPeriod  time.Duration `yaml:"tick_period"`
	SampleEvery time.Duration `yaml:"sample_every"`
	Heartbeat   time.Duration `yaml:"heartbeat"` // 0 disables
	Alarms      AlarmsConfig  `yaml:"alarms"`
	Storage     StorageConfig `yaml:"storage"`
	Speech      SpeechConfig  `yaml:"speech"`
	GPIO        GPIOConfig    `yaml:"gpio"`
	Alert       AlertConfig   `yaml:"alert"`
	Sensors     SensorsConfig `yaml:"sensors"`
	MQTT        MQTTConfig    `yaml:"mqtt"`
	HTTP        HTTPConfig    `yaml:"http"`
	Log         LogConfig     `yaml:"log"`
}

// AlarmsConfig holds one entry per sensor alarm.
type AlarmsConfig struct {
	Humidity AlarmConfig `yaml:"humidity"`
	Range    AlarmConfig `yaml:"range"`
	Gas      AlarmConfig `yaml:"gas"` // threshold 0 disables the alarm
}

// AlarmConfig is a threshold and how long the sound lock is held after firing.
type AlarmConfig struct {
	Threshold   int           `yaml:"threshold"`
	UnlockAfter time.Duration `yaml:"unlock_after"`
}

// StorageConfig describes the non-volatile sample log.
type StorageConfig struct {
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity"`
	Sync     bool   `yaml:"sync"` // fsync after every write
}

// SpeechConfig contains the speech chip serial port configuration.
type SpeechConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// GPIOConfig contains line offsets (BCM numbering) on Chip.
type GPIOConfig struct {
	Chip  string `yaml:"chip"`
	Trig  int    `yaml:"trig"`
	Echo  int    `yaml:"echo"`
	Red   int    `yaml:"red"`
	Green int    `yaml:"green"`
	Blue  int    `yaml:"blue"`
	SIN   int    `yaml:"sin"`
	CLK   int    `yaml:"clk"`
	LAT   int    `yaml:"lat"`
}

// AlertConfig selects the PWM channel for the alert LED.
type AlertConfig struct {
	PWMChip    int           `yaml:"pwm_chip"`
	PWMChannel int           `yaml:"pwm_channel"`
	Period     time.Duration `yaml:"period"`
	PulseStep  int           `yaml:"pulse_step"`
}

// SensorsConfig contains IIO attribute paths.
type SensorsConfig struct {
	HumidityPath    string `yaml:"humidity_path"`
	HumidityDivisor int    `yaml:"humidity_divisor"`
	GasPath         string `yaml:"gas_path"` // empty disables the gas sensor
}

// MQTTConfig contains broker settings.
type MQTTConfig struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	BufferSize int    `yaml:"buffer_size"`
}

// HTTPConfig contains the status server address; empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration of the original device.
func Default() *Config {
	return &Config{
		TickPeriod:  100 * time.Millisecond,
		SampleEvery: 6 * time.Second,
		Heartbeat:   15 * time.Minute,
		Alarms: AlarmsConfig{
			Humidity: AlarmConfig{Threshold: 40, UnlockAfter: 4 * time.Second},
			Range:    AlarmConfig{Threshold: 5, UnlockAfter: 4 * time.Second},
			Gas:      AlarmConfig{Threshold: 0, UnlockAfter: 4 * time.Second},
		},
		Storage: StorageConfig{
			Path:     "/var/lib/sensational-toy/eeprom.bin",
			Capacity: 511,
			Sync:     true,
		},
		Speech: SpeechConfig{
			Port: "/dev/ttyS0",
			Baud: speech.DefaultBaudRate,
		},
		GPIO: GPIOConfig{
			Chip:  gpio.DefaultChip,
			Trig:  gpio.DefaultPinTrig,
			Echo:  gpio.DefaultPinEcho,
			Red:   gpio.DefaultPinRed,
			Green: gpio.DefaultPinGreen,
			Blue:  gpio.DefaultPinBlue,
			SIN:   gpio.DefaultPinSIN,
			CLK:   gpio.DefaultPinCLK,
			LAT:   gpio.DefaultPinLAT,
		},
		Alert: AlertConfig{
			PWMChip:    0,
			PWMChannel: 0,
			Period:     gpio.DefaultPWMPeriod,
			PulseStep:  logic.DefaultPulseStep,
		},
		Sensors: SensorsConfig{
			HumidityPath:    sensor.DefaultHumidityPath,
			HumidityDivisor: 1000,
		},
		MQTT: MQTTConfig{
			Broker:     "tcp://localhost:1883",
			ClientID:   "sensational-toy",
			BufferSize: 64,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills zero fields from Default. The gas threshold and
// gas path are left alone since zero means disabled.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.TickPeriod == 0 {
		c.TickPeriod = def.TickPeriod
	}
	if c.SampleEvery == 0 {
		c.SampleEvery = def.SampleEvery
	}

	if c.Alarms.Humidity.Threshold == 0 {
		c.Alarms.Humidity.Threshold = def.Alarms.Humidity.Threshold
	}
	if c.Alarms.Range.Threshold == 0 {
		c.Alarms.Range.Threshold = def.Alarms.Range.Threshold
	}
	for _, pair := range []struct{ got, def *AlarmConfig }{
		{&c.Alarms.Humidity, &def.Alarms.Humidity},
		{&c.Alarms.Range, &def.Alarms.Range},
		{&c.Alarms.Gas, &def.Alarms.Gas},
	} {
		if pair.got.UnlockAfter == 0 {
			pair.got.UnlockAfter = pair.def.UnlockAfter
		}
	}

	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Storage.Capacity == 0 {
		c.Storage.Capacity = def.Storage.Capacity
	}

	if c.Speech.Port == "" {
		c.Speech.Port = def.Speech.Port
	}
	if c.Speech.Baud == 0 {
		c.Speech.Baud = def.Speech.Baud
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}

	if c.Alert.Period == 0 {
		c.Alert.Period = def.Alert.Period
	}
	if c.Alert.PulseStep == 0 {
		c.Alert.PulseStep = def.Alert.PulseStep
	}

	if c.Sensors.HumidityPath == "" {
		c.Sensors.HumidityPath = def.Sensors.HumidityPath
	}
	if c.Sensors.HumidityDivisor == 0 {
		c.Sensors.HumidityDivisor = def.Sensors.HumidityDivisor
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// Timings converts the configured durations for logic.NewSchedule.
func (c *Config) Timings() logic.Timings {
	return logic.Timings{
		TickPeriod:     c.TickPeriod,
		SampleEvery:    c.SampleEvery,
		HumidityUnlock: c.Alarms.Humidity.UnlockAfter,
		RangeUnlock:    c.Alarms.Range.UnlockAfter,
		GasUnlock:      c.Alarms.Gas.UnlockAfter,
	}
}

// Thresholds returns the alarm thresholds.
func (c *Config) Thresholds() logic.Thresholds {
	return logic.Thresholds{
		Humidity: c.Alarms.Humidity.Threshold,
		RangeCM:  c.Alarms.Range.Threshold,
		Gas:      c.Alarms.Gas.Threshold,
	}
}

// Validate checks the configuration. Timing errors wrap logic.ErrInvalidDelay.
func (c *Config) Validate() error {
	if _, err := logic.NewSchedule(c.Timings()); err != nil {
		return fmt.Errorf("timings: %w", err)
	}
	if c.Storage.Capacity < 1 || c.Storage.Capacity > 65535 {
		return fmt.Errorf("storage capacity %d out of range 1..65535", c.Storage.Capacity)
	}
	if c.Alert.PulseStep < 1 || c.Alert.PulseStep > logic.PulseMax {
		return fmt.Errorf("alert pulse step %d out of range 1..%d", c.Alert.PulseStep, logic.PulseMax)
	}
	if c.Alarms.Humidity.Threshold < 0 || c.Alarms.Range.Threshold < 0 || c.Alarms.Gas.Threshold < 0 {
		return errors.New("alarm thresholds must not be negative")
	}
	if c.Heartbeat < 0 {
		return errors.New("heartbeat must not be negative")
	}
	if c.MQTT.Broker == "" {
		return errors.New("mqtt broker must be set")
	}
	return nil
}
