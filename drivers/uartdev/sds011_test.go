package uartdev

import (
	"context"
	"testing"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/internal/hal/haltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// PM2.5 = 0x0064/10 = 10.0, PM10 = 0x00c8/10 = 20.0
var goodFrame = []byte{0xaa, 0xc0, 0x64, 0x00, 0xc8, 0x00, 0x01, 0x02, 0x2f, 0xab}

func TestDecodeFrame(t *testing.T) {
	r, err := DecodeFrame(goodFrame)
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.PM25)
	assert.Equal(t, 20.0, r.PM10)

	bad := append([]byte(nil), goodFrame...)
	bad[8]++
	_, err = DecodeFrame(bad)
	assert.Error(t, err)

	_, err = DecodeFrame(goodFrame[:9])
	assert.Error(t, err)

	bad = append([]byte(nil), goodFrame...)
	bad[9] = 0x00
	_, err = DecodeFrame(bad)
	assert.Error(t, err)
}

func usePort(t *testing.T, p *haltest.Port) {
	orig := hal.OpenSerial
	hal.OpenSerial = p.Opener()
	t.Cleanup(func() { hal.OpenSerial = orig })
}

func TestSDS011RunCycleSkipsNoise(t *testing.T) {
	p := &haltest.Port{}
	p.Feed([]byte{0x00, 0xab, 0xaa})
	p.Feed(goodFrame)
	usePort(t, p)

	var lines []string
	s := NewSDS011("/dev/ttyS0", 9600)
	require.NoError(t, s.RunCycle(context.Background(), func(l string) { lines = append(lines, l) }))
	assert.Equal(t, []string{"PM2.5: 10.0 µg/m³<br>PM10: 20.0 µg/m³"}, lines)
	assert.True(t, p.Closed)
	assert.Equal(t, 9600, p.Mode.BaudRate)
	assert.Equal(t, serial.NoParity, p.Mode.Parity)
}

func TestSDS011NoFrame(t *testing.T) {
	usePort(t, &haltest.Port{})

	s := NewSDS011("/dev/ttyS0", 9600)
	s.Wait = 50 * time.Millisecond
	_, err := s.Read(context.Background())
	assert.Equal(t, ErrNoFrame, err)
}

func TestSDS011Cancelled(t *testing.T) {
	usePort(t, &haltest.Port{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSDS011("/dev/ttyS0", 9600).Read(ctx)
	assert.Equal(t, context.Canceled, err)
}
