package spidev

import (
	"context"
	"testing"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/internal/hal/haltest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
)

func fakeHardware(t *testing.T) (*haltest.SPIPort, map[string]*gpiotest.Pin) {
	port := &haltest.SPIPort{Name: "/dev/spidev0.0"}
	pins := map[string]*gpiotest.Pin{
		"GPIO24": {N: "GPIO24", Num: 24},
		"GPIO25": {N: "GPIO25", Num: 25},
	}
	origSPI, origPin := hal.OpenSPI, hal.PinByName
	hal.OpenSPI = port.SPIOpener()
	hal.PinByName = func(name string) (gpio.PinIO, error) {
		p, ok := pins[name]
		if !ok {
			return nil, errors.Errorf("no GPIO pin named %q", name)
		}
		return p, nil
	}
	t.Cleanup(func() { hal.OpenSPI, hal.PinByName = origSPI, origPin })
	return port, pins
}

func TestSH1106Lifecycle(t *testing.T) {
	port, pins := fakeHardware(t)
	d := NewSH1106(logger.NewMockClient(), "/dev/spidev0.0", "GPIO24", "GPIO25")
	assert.True(t, d.Persistent())

	var lines []string
	emit := func(l string) { lines = append(lines, l) }

	assert.Error(t, d.RunCycle(context.Background(), emit))

	require.NoError(t, d.Initialize(context.Background(), emit))
	require.NoError(t, d.RunCycle(context.Background(), emit))
	assert.Equal(t, []string{
		"SPI OLED is displaying image...",
		"Image displayed on SPI OLED.",
		"SPI OLED is already initialized and displaying image.",
	}, lines)
	assert.Equal(t, 1, port.Connects)
	assert.Equal(t, spi.Mode0, port.Mode)
	assert.Equal(t, gpio.High, pins["GPIO25"].L)
	assert.Equal(t, sh1106Init, port.Writes[0])

	require.NoError(t, d.Close())
	assert.True(t, port.Closed)
	// the last page written before display off is blank
	last := port.Writes[len(port.Writes)-2]
	assert.Equal(t, make([]byte, sh1106Width), last)
	assert.Equal(t, []byte{0xae}, port.Writes[len(port.Writes)-1])

	assert.NoError(t, d.Close())
}

func TestSH1106MissingPin(t *testing.T) {
	fakeHardware(t)
	d := NewSH1106(logger.NewMockClient(), "/dev/spidev0.0", "GPIO24", "GPIO99")
	err := d.Initialize(context.Background(), func(string) {})
	assert.Error(t, err)
}

func TestSH1106Fingerprint(t *testing.T) {
	a := NewSH1106(nil, "/dev/spidev0.0", "GPIO24", "GPIO25")
	b := NewSH1106(nil, "/dev/spidev0.1", "GPIO24", "GPIO25")
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestTestPatternHasBorder(t *testing.T) {
	p := testPattern()
	assert.Len(t, p, sh1106Width*sh1106Pages)
	assert.Equal(t, byte(0xff), p[0])
	assert.Equal(t, byte(0x01), p[1]&0x01)
}

func TestSDCard(t *testing.T) {
	var lines []string
	require.NoError(t, SDCard{}.RunCycle(context.Background(), func(l string) { lines = append(lines, l) }))
	assert.Equal(t, []string{"(Test for SD Card Module not implemented)"}, lines)
}
