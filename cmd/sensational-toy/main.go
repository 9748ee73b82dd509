// Command sensational-toy reads humidity, range and gas sensors, plays alarm
// sounds on a speech chip and logs humidity samples until a host drains them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/sensational-toy/internal/config"
	"github.com/sweeney/sensational-toy/internal/eeprom"
	"github.com/sweeney/sensational-toy/internal/gpio"
	"github.com/sweeney/sensational-toy/internal/logging"
	"github.com/sweeney/sensational-toy/internal/logic"
	"github.com/sweeney/sensational-toy/internal/mqtt"
	"github.com/sweeney/sensational-toy/internal/sensor"
	"github.com/sweeney/sensational-toy/internal/speech"
	"github.com/sweeney/sensational-toy/internal/status"
	"github.com/sweeney/sensational-toy/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/sensational-toy/config.yaml", "YAML configuration file")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	printState := flag.Bool("print-state", false, "Print sensor readings and storage state and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *broker, *httpAddr, *logLevel)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: init logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(exitCode(log, run(cfg, *printState, log)))
}

// exitCode logs a fatal run error and flushes the logger. os.Exit skips
// deferred calls, so the flush happens here.
func exitCode(log *zap.Logger, err error) int {
	code := 0
	if err != nil {
		log.Error("fatal", zap.Error(err))
		code = 1
	}
	_ = log.Sync()
	return code
}

// applyFlags lets non-empty command-line values win over the config file.
func applyFlags(cfg *config.Config, broker, httpAddr, logLevel string) {
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	switch httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = httpAddr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
}

func run(cfg *config.Config, printState bool, log *zap.Logger) error {
	// Storage
	store, err := eeprom.OpenFile(cfg.Storage.Path, logic.StoreSize(cfg.Storage.Capacity), cfg.Storage.Sync)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	samples, err := logic.OpenLog(store, cfg.Storage.Capacity)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	// Sensors
	poller := &sensor.Poller{
		Humidity: sensor.IIOChannel{Path: cfg.Sensors.HumidityPath, Divisor: cfg.Sensors.HumidityDivisor},
	}
	if cfg.Sensors.GasPath != "" {
		poller.Gas = sensor.IIOChannel{Path: cfg.Sensors.GasPath}
	}
	ranger, err := gpio.NewRealRanger(cfg.GPIO.Chip, cfg.GPIO.Trig, cfg.GPIO.Echo)
	if err != nil {
		log.Warn("range sensor unavailable", zap.Error(err))
	} else {
		defer ranger.Close()
		poller.Range = sensor.RangeChannel{Ranger: ranger}
	}

	if printState {
		sample, errs := poller.Poll()
		fmt.Printf("humidity: %s, range: %s, gas: %s\n",
			formatReading(sample.Humidity, errs.Humidity),
			formatReading(sample.RangeCM, errs.Range),
			formatReading(sample.Gas, errs.Gas))
		fmt.Printf("storage: %s, %d/%d samples\n", samples.Control(), samples.Cursor(), samples.Capacity())
		return nil
	}

	// Outputs
	line, err := speech.OpenSerial(cfg.Speech.Port, cfg.Speech.Baud)
	if err != nil {
		return fmt.Errorf("init speech: %w", err)
	}
	defer line.Close()

	periph := logic.Peripherals{Speech: line}
	if rgb, err := gpio.NewRealRGB(cfg.GPIO.Chip, cfg.GPIO.Red, cfg.GPIO.Green, cfg.GPIO.Blue); err != nil {
		log.Warn("status light unavailable", zap.Error(err))
	} else {
		defer rgb.Close()
		periph.Light = rgb
	}
	if bar, err := gpio.NewRealBargraph(cfg.GPIO.Chip, cfg.GPIO.SIN, cfg.GPIO.CLK, cfg.GPIO.LAT); err != nil {
		log.Warn("bargraph unavailable", zap.Error(err))
	} else {
		defer bar.Close()
		periph.Bargraph = bar
	}
	if pwm, err := gpio.OpenPWM(gpio.SysfsRoot, cfg.Alert.PWMChip, cfg.Alert.PWMChannel, cfg.Alert.Period); err != nil {
		log.Warn("alert led unavailable", zap.Error(err))
	} else {
		defer pwm.Close()
		periph.Alert = pwm
	}

	dev, err := logic.NewDevice(logic.Config{
		Timings:    cfg.Timings(),
		Thresholds: cfg.Thresholds(),
		Sounds:     speech.Sounds(),
		PulseStep:  cfg.Alert.PulseStep,
	}, samples, periph)
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err := dev.Greet(speech.Greeting); err != nil {
		log.Warn("greeting failed", zap.Error(err))
	}

	// MQTT
	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.MQTT.Broker,
		ClientID:   cfg.MQTT.ClientID,
		Username:   cfg.MQTT.Username,
		Password:   cfg.MQTT.Password,
		BufferSize: cfg.MQTT.BufferSize,
	}, log)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()
	host := mqtt.NewHostLink(publisher, publisher, samples.Capacity(), time.Now)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:     cfg.TickPeriod.Milliseconds(),
		SampleMs:   cfg.SampleEvery.Milliseconds(),
		Broker:     cfg.MQTT.Broker,
		HTTPPort:   cfg.HTTP.Addr,
		SerialPort: cfg.Speech.Port,
		StorePath:  cfg.Storage.Path,
	})
	tracker.Update(dev.Snapshot())
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warn("failed to publish startup event", zap.Error(err))
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", zap.String("addr", cfg.HTTP.Addr))
	}

	log.Info("started",
		zap.Duration("tick", cfg.TickPeriod),
		zap.Duration("sample_every", cfg.SampleEvery),
		zap.String("broker", cfg.MQTT.Broker),
		zap.String("storage", samples.Control().String()),
		zap.Int("cursor", samples.Cursor()))

	ticker := time.NewTicker(cfg.TickPeriod)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		device:     dev,
		poller:     poller,
		publisher:  publisher,
		mqttStatus: publisher,
		host:       host,
		tracker:    tracker,
		log:        log,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
	}, ticker.C, sigCh)
}

func formatReading(v *int, err error) string {
	switch {
	case err != nil:
		return "error (" + err.Error() + ")"
	case v == nil:
		return "not ready"
	}
	return fmt.Sprintf("%d", *v)
}
