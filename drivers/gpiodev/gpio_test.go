package gpiodev

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// levelPin reads back a fixed level regardless of pull configuration.
type levelPin struct {
	*gpiotest.Pin
	level gpio.Level
}

func (p *levelPin) Read() gpio.Level { return p.level }

// echoPin replays a sequence of edges.
type echoPin struct {
	*gpiotest.Pin
	edges chan gpio.Level
	cur   gpio.Level
}

func (p *echoPin) In(pull gpio.Pull, edge gpio.Edge) error { return nil }
func (p *echoPin) Read() gpio.Level                        { return p.cur }
func (p *echoPin) WaitForEdge(timeout time.Duration) bool {
	select {
	case l := <-p.edges:
		p.cur = l
		return true
	case <-time.After(timeout):
		return false
	}
}

func usePins(t *testing.T, pins ...gpio.PinIO) {
	byName := make(map[string]gpio.PinIO)
	for _, p := range pins {
		byName[p.Name()] = p
	}
	orig := hal.PinByName
	hal.PinByName = func(name string) (gpio.PinIO, error) {
		p, ok := byName[name]
		if !ok {
			return nil, errors.Errorf("no GPIO pin named %q", name)
		}
		return p, nil
	}
	t.Cleanup(func() { hal.PinByName = orig })
}

func record(lines *[]string) func(string) {
	return func(l string) { *lines = append(*lines, l) }
}

func TestLEDRunCycle(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO5", Num: 5}
	usePins(t, p)
	led := NewLED("GPIO5")
	led.OnTime = 0

	var lines []string
	require.NoError(t, led.RunCycle(context.Background(), record(&lines)))
	assert.Equal(t, []string{"LED toggled ON and OFF"}, lines)
	assert.Equal(t, gpio.Low, p.L)
}

func TestLEDCancelledStillTurnsOff(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO5", Num: 5}
	usePins(t, p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLED("GPIO5").RunCycle(ctx, func(string) {})
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, gpio.Low, p.L)
}

func TestButtonRunCycle(t *testing.T) {
	p := &levelPin{Pin: &gpiotest.Pin{N: "GPIO6", Num: 6}, level: gpio.Low}
	usePins(t, p)
	b := &Button{Pin: "GPIO6"}

	var lines []string
	require.NoError(t, b.RunCycle(context.Background(), record(&lines)))
	p.level = gpio.High
	require.NoError(t, b.RunCycle(context.Background(), record(&lines)))
	assert.Equal(t, []string{"Button PRESSED", "Button RELEASED"}, lines)
}

func TestDistanceCM(t *testing.T) {
	assert.InDelta(t, 17.15, distanceCM(time.Millisecond), 1e-9)
	assert.Equal(t, 0.0, distanceCM(0))
}

func TestUltrasonicEcho(t *testing.T) {
	trig := &gpiotest.Pin{N: "GPIO26", Num: 26}
	echo := &echoPin{Pin: &gpiotest.Pin{N: "GPIO19", Num: 19}, edges: make(chan gpio.Level, 2)}
	echo.edges <- gpio.High
	echo.edges <- gpio.Low
	usePins(t, trig, echo)

	d, err := NewUltrasonic("GPIO26", "GPIO19").Measure(context.Background())
	require.NoError(t, err)
	assert.True(t, d >= 0)
	assert.Equal(t, gpio.Low, trig.L)
}

func TestUltrasonicNoEcho(t *testing.T) {
	trig := &gpiotest.Pin{N: "GPIO26", Num: 26}
	echo := &echoPin{Pin: &gpiotest.Pin{N: "GPIO19", Num: 19}, edges: make(chan gpio.Level)}
	usePins(t, trig, echo)
	u := NewUltrasonic("GPIO26", "GPIO19")
	u.EchoTimeout = 10 * time.Millisecond

	var lines []string
	err := u.RunCycle(context.Background(), record(&lines))
	assert.Equal(t, ErrNoEcho, err)
	assert.Empty(t, lines)
}

func writeFile(t *testing.T, path, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestDHT11RunCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "in_temp_input"), "23000\n")
	writeFile(t, filepath.Join(dir, "in_humidityrelative_input"), "41000\n")
	s := NewDHT11(dir)
	s.AttemptDelay = 0

	var lines []string
	require.NoError(t, s.RunCycle(context.Background(), record(&lines)))
	assert.Equal(t, []string{"Temperature: 23.0°C<br>Humidity: 41.0%"}, lines)
}

func TestDHT11RetriesThenGivesUp(t *testing.T) {
	reads := 0
	orig := hal.ReadFile
	hal.ReadFile = func(name string) ([]byte, error) {
		reads++
		return nil, errors.New("input/output error")
	}
	defer func() { hal.ReadFile = orig }()

	s := NewDHT11("/sys/bus/iio/devices/iio:device0")
	s.AttemptDelay = 0
	var lines []string
	require.NoError(t, s.RunCycle(context.Background(), record(&lines)))
	assert.Equal(t, []string{"Failed to get reading. Try again!"}, lines)
	assert.Equal(t, 5, reads)
}

func TestParseW1Slave(t *testing.T) {
	good := "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n"
	v, err := parseW1Slave(good)
	require.NoError(t, err)
	assert.Equal(t, 23.125, v)

	_, err = parseW1Slave("72 01 4b 46 7f ff 0e 10 57 : crc=57 NO\n72 01 4b 46 7f ff 0e 10 57 t=23125\n")
	assert.Error(t, err)
	_, err = parseW1Slave("crc=57 YES\n")
	assert.Error(t, err)
	_, err = parseW1Slave("crc=57 YES\nno temp\n")
	assert.Error(t, err)
}

func TestDS18B20RunCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "28-0316a2794fff", "w1_slave"),
		"50 05 4b 46 7f ff 0c 10 1c : crc=1c YES\n50 05 4b 46 7f ff 0c 10 1c t=85000\n")

	var lines []string
	require.NoError(t, (&DS18B20{Devices: dir}).RunCycle(context.Background(), record(&lines)))
	assert.Equal(t, []string{"Temperature: 85.000°C"}, lines)
}

func TestDS18B20Missing(t *testing.T) {
	err := (&DS18B20{Devices: t.TempDir()}).RunCycle(context.Background(), func(string) {})
	assert.Equal(t, errNoThermometer, err)
}
