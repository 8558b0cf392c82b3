package stream

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterFramesEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec, "")
	require.NoError(t, err)

	w.Send("I2C devices found: [0x23]")
	w.Send("Temperature: 21.0°C<br>Humidity: 40.0%")

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"data: I2C devices found: [0x23]\n\ndata: Temperature: 21.0°C<br>Humidity: 40.0%\n\n",
		rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestWriterSplitsMultilineAndSetsID(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec, "run-1")
	require.NoError(t, err)

	w.Send("Register 0: 1.5\r\nRegister 2: 3\n")

	assert.Equal(t, "id: run-1\ndata: Register 0: 1.5\ndata: Register 2: 3\n\n", rec.Body.String())
}

type noFlush struct {
	http.ResponseWriter
}

func TestWriterRequiresFlusher(t *testing.T) {
	_, err := NewWriter(noFlush{httptest.NewRecorder()}, "")
	assert.Error(t, err)
}

func TestWriterConcurrentSends(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Send("x")
		}()
	}
	wg.Wait()

	assert.Equal(t, 20*len("data: x\n\n"), rec.Body.Len())
	assert.NoError(t, w.Err())
}
