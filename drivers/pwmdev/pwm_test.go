package pwmdev

import (
	"context"
	"testing"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

// recPin records every PWM request made to the pin.
type recPin struct {
	*gpiotest.Pin
	duties []gpio.Duty
	freqs  []physic.Frequency
}

func (p *recPin) PWM(d gpio.Duty, f physic.Frequency) error {
	p.duties = append(p.duties, d)
	p.freqs = append(p.freqs, f)
	return p.Pin.PWM(d, f)
}

func usePins(t *testing.T, names ...string) map[string]*recPin {
	pins := make(map[string]*recPin)
	for i, n := range names {
		pins[n] = &recPin{Pin: &gpiotest.Pin{N: n, Num: i}}
	}
	orig := hal.PinByName
	hal.PinByName = func(name string) (gpio.PinIO, error) {
		p, ok := pins[name]
		if !ok {
			return nil, errors.Errorf("no GPIO pin named %q", name)
		}
		return p, nil
	}
	t.Cleanup(func() { hal.PinByName = orig })
	return pins
}

func TestDuty(t *testing.T) {
	assert.Equal(t, gpio.Duty(0), Duty(-1))
	assert.Equal(t, gpio.DutyMax, Duty(100))
	assert.Equal(t, gpio.DutyMax/2, Duty(50))
	assert.Equal(t, 2.0, ServoDuty(0))
	assert.Equal(t, 12.0, ServoDuty(180))
	assert.Equal(t, 7.0, ServoDuty(90))
}

func TestServoRunCycle(t *testing.T) {
	pins := usePins(t, "GPIO25")
	s := NewServo("GPIO25")
	s.Settle = 0

	var lines []string
	require.NoError(t, s.RunCycle(context.Background(), func(l string) { lines = append(lines, l) }))
	assert.Equal(t, []string{
		"Trying Servo Motor rotation...",
		"Rotating to 0 degrees",
		"Rotating to 180 degrees",
		"Servo motor test completed.",
	}, lines)

	p := pins["GPIO25"]
	assert.Equal(t, []gpio.Duty{Duty(2), Duty(12)}, p.duties)
	assert.Equal(t, servoFrequency, p.freqs[0])
	assert.Equal(t, gpio.Low, p.L)
}

func TestServoMissingPin(t *testing.T) {
	usePins(t)
	err := NewServo("GPIO25").RunCycle(context.Background(), func(string) {})
	assert.Error(t, err)
}

func TestLEDFaderRunCycle(t *testing.T) {
	pins := usePins(t, "GPIO18")
	f := NewLEDFader("GPIO18")
	f.Step = 25
	f.StepDelay = 0

	var lines []string
	require.NoError(t, f.RunCycle(context.Background(), func(l string) { lines = append(lines, l) }))
	assert.Equal(t, []string{"LED fading cycle complete"}, lines)
	// 0 and the final 0 drive the pin low instead of using PWM
	assert.Equal(t, []gpio.Duty{Duty(25), Duty(50), Duty(75), gpio.DutyMax, gpio.DutyMax, Duty(75), Duty(50), Duty(25)}, pins["GPIO18"].duties)
}

func TestLEDFaderCancelled(t *testing.T) {
	usePins(t, "GPIO18")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLEDFader("GPIO18").RunCycle(ctx, func(string) {})
	assert.Equal(t, context.Canceled, err)
}

func TestRGBLEDRunCycle(t *testing.T) {
	pins := usePins(t, "GPIO23", "GPIO24", "GPIO22")
	r := NewRGBLED([]string{"GPIO23", "GPIO24", "GPIO22"})
	r.Hold = 0

	var lines []string
	require.NoError(t, r.RunCycle(context.Background(), func(l string) { lines = append(lines, l) }))
	assert.Equal(t, []string{"RGB LED cycle complete (red, green, blue)"}, lines)
	for _, p := range pins {
		assert.Equal(t, []gpio.Duty{gpio.DutyMax}, p.duties)
		assert.Equal(t, gpio.Low, p.L)
	}
}

func TestRGBLEDTimeout(t *testing.T) {
	usePins(t, "GPIO23", "GPIO24", "GPIO22")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := NewRGBLED([]string{"GPIO23", "GPIO24", "GPIO22"}).RunCycle(ctx, func(string) {})
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestRGBLEDNeedsThreePins(t *testing.T) {
	err := NewRGBLED([]string{"GPIO23"}).RunCycle(context.Background(), func(string) {})
	assert.Error(t, err)
}
