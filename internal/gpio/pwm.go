package gpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SysfsRoot is where the kernel exposes PWM controllers.
const SysfsRoot = "/sys/class/pwm"

// DefaultPWMPeriod gives a flicker-free 1 kHz fade.
const DefaultPWMPeriod = time.Millisecond

// PWM is one sysfs PWM channel used as an analog-intensity output.
type PWM struct {
	dir    string
	period time.Duration
}

// OpenPWM exports channel on pwmchip<chip> under root, sets the period and
// enables output at zero duty.
func OpenPWM(root string, chip, channel int, period time.Duration) (*PWM, error) {
	if period <= 0 {
		period = DefaultPWMPeriod
	}
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := writeAttr(filepath.Join(chipDir, "export"), strconv.Itoa(channel)); err != nil {
			return nil, fmt.Errorf("export pwm%d: %w", channel, err)
		}
	}

	p := &PWM{dir: dir, period: period}
	if err := p.write("period", strconv.FormatInt(period.Nanoseconds(), 10)); err != nil {
		return nil, err
	}
	if err := p.write("duty_cycle", "0"); err != nil {
		return nil, err
	}
	if err := p.write("enable", "1"); err != nil {
		return nil, err
	}
	return p, nil
}

// SetBrightness sets the duty cycle to level/255 of the period.
func (p *PWM) SetBrightness(level uint8) error {
	duty := p.period.Nanoseconds() * int64(level) / 255
	return p.write("duty_cycle", strconv.FormatInt(duty, 10))
}

// Close darkens and disables the channel.
func (p *PWM) Close() error {
	var errs []error
	if err := p.write("duty_cycle", "0"); err != nil {
		errs = append(errs, err)
	}
	if err := p.write("enable", "0"); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (p *PWM) write(attr, value string) error {
	if err := writeAttr(filepath.Join(p.dir, attr), value); err != nil {
		return fmt.Errorf("pwm %s: %w", attr, err)
	}
	return nil
}

func writeAttr(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
