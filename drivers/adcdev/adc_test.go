package adcdev

import (
	"context"
	"testing"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/internal/hal/haltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useADC answers every conversion with the raw value stored for its channel.
func useADC(t *testing.T, values map[int]int) *haltest.SPIPort {
	port := &haltest.SPIPort{Name: "/dev/spidev0.1"}
	port.Reply = func(w, r []byte) {
		ch := int(w[1]>>4) & 0x07
		v := values[ch]
		r[1] = byte(v>>8) & 0x03
		r[2] = byte(v)
	}
	orig := hal.OpenSPI
	hal.OpenSPI = port.SPIOpener()
	t.Cleanup(func() { hal.OpenSPI = orig })
	return port
}

func TestMCP3008Read(t *testing.T) {
	port := useADC(t, map[int]int{3: 1023, 5: 512})
	adc := MCP3008{Port: "/dev/spidev0.1"}

	v, err := adc.Read(3)
	require.NoError(t, err)
	assert.Equal(t, 1023, v)
	assert.Equal(t, []byte{0x01, 0xb0, 0x00}, port.Writes[0])
	assert.True(t, port.Closed)

	v, err = adc.Read(5)
	require.NoError(t, err)
	assert.Equal(t, 512, v)

	_, err = adc.Read(8)
	assert.Error(t, err)
}

func TestSensorsRunCycle(t *testing.T) {
	useADC(t, map[int]int{0: 0, 1: 1023, 2: 512})
	adc := MCP3008{Port: "/dev/spidev0.1"}

	var lines []string
	emit := func(l string) { lines = append(lines, l) }
	require.NoError(t, (&Pot{ADC: adc, Channel: 1}).RunCycle(context.Background(), emit))
	require.NoError(t, (&TDS{ADC: adc, Channel: 0}).RunCycle(context.Background(), emit))
	require.NoError(t, (&LDR{ADC: adc, Channel: 2}).RunCycle(context.Background(), emit))

	assert.Equal(t, []string{
		"Potentiometer: raw 1023 (3.30 V)",
		"TDS: 0.00 ppm (0.00 V)",
		"LDR: raw 512 (50.0% light)",
	}, lines)
}

func TestPPM(t *testing.T) {
	assert.Equal(t, 0.0, PPM(0))
	assert.InDelta(t, 367.475, PPM(1), 1e-9)
}
