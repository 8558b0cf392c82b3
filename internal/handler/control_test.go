package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/gorilla/mux"
	"github.com/jigworks/device-testjig-go/drivers/custom"
	"github.com/jigworks/device-testjig-go/drivers/rs485"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/internal/supervisor"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func newTestRouter() (*mux.Router, *Controller) {
	lc := logger.NewMockClient()
	d, reg := newTestDispatcher()
	c := &Controller{
		LoggingClient: lc,
		Supervisor:    supervisor.New(),
		Registry:      reg,
		Dispatcher:    d,
		RS485:         rs485.NewRunner(lc, "/dev/null", 0, 0, "test"),
		Custom:        custom.NewManager(lc, reg, testHardware),
	}
	r := mux.NewRouter()
	r.HandleFunc(common.PinConnectionRoute, c.PinConnectionHandler).Methods(http.MethodGet)
	r.HandleFunc(common.RunTestRoute, c.RunTestHandler).Methods(http.MethodGet)
	r.HandleFunc(common.StopTestRoute, c.StopTestHandler).Methods(http.MethodPost)
	r.HandleFunc(common.RunRS485Route, c.RunRS485Handler).Methods(http.MethodGet)
	r.HandleFunc(common.StopRS485Route, c.StopRS485Handler).Methods(http.MethodPost)
	r.HandleFunc(common.CustomRoute, c.CustomHandler).Methods(http.MethodPost)
	r.HandleFunc(common.APIDevicesRoute, c.DevicesHandler).Methods(http.MethodGet)
	r.HandleFunc(common.APISerialPortRoute, c.SerialPortsHandler).Methods(http.MethodGet)
	r.HandleFunc(common.APIPingRoute, PingHandler).Methods(http.MethodGet)
	return r, c
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestPinConnection(t *testing.T) {
	r, _ := newTestRouter()

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/pin-connection/I2C/BH1750", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode(t, rec)
	assert.Equal(t, "I2C", v["protocol"])
	assert.Equal(t, "BH1750", v["device"])
	pins := v["pin_connections"].(map[string]interface{})
	assert.Equal(t, "GPIO2 / SDA1 (Pin 3)", pins["SDA"])

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/pin-connection/i2c/lm75", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"error": "Pin connection not defined for protocol 'i2c' and device 'lm75'.",
	}, decode(t, rec))
}

// cancelDriver emits one line and ends the request.
type cancelDriver struct {
	cancel context.CancelFunc
}

func (c cancelDriver) RunCycle(ctx context.Context, emit models.Emitter) error {
	emit("LED toggled ON and OFF")
	c.cancel()
	return nil
}

func TestRunTestStreams(t *testing.T) {
	r, c := newTestRouter()
	ctx, cancel := context.WithCancel(context.Background())
	c.Dispatcher.Register("gpio", "led", func(lc logger.LoggingClient) (models.TestDriver, error) {
		return cancelDriver{cancel: cancel}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/run-test/gpio/led", nil).WithContext(ctx)
	rec := serve(r, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.ContentTypeEventStream, rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: "), body)
	assert.Contains(t, body, "data: LED toggled ON and OFF\n\n")
	assert.False(t, c.Supervisor.Active(common.RunKindTest))
}

func TestStopTestReleasesDisplay(t *testing.T) {
	r, c := newTestRouter()
	stats := &displayStats{}
	c.Dispatcher.Register("spi", "oled", displayFactory("w", stats))
	lines, ctx := collectLines(3)
	c.Dispatcher.Run(ctx, "spi", "oled", lines.emit)
	require.Equal(t, []string{"spi"}, c.Registry.Keys())

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/stop-test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"result": "Test stopped"}, decode(t, rec))
	assert.Equal(t, 1, stats.closed)
	assert.Empty(t, c.Registry.Keys())

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/stop-test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunRS485(t *testing.T) {
	r, _ := newTestRouter()

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/run-rs485?mode=listen&baudRate=9600&parity=N", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "Invalid mode."}, decode(t, rec))

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/run-rs485?mode=receive&baudRate=fast&parity=N", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/run-rs485?mode=receive&baudRate=9600&parity=N&stopbits=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.ContentTypeEventStream, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "data: Invalid RS485 settings: ")

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/stop-rs485", nil))
	assert.Equal(t, map[string]interface{}{"result": "RS485 test stopped"}, decode(t, rec))
}

func TestCustomRoutes(t *testing.T) {
	r, _ := newTestRouter()

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/custom/can/write", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/custom/i2c/explode", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/custom/i2c/read_byte", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/custom/uart/close", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": true, "message": "No active UART session"}, decode(t, rec))
}

func TestDevicesAndPing(t *testing.T) {
	r, _ := newTestRouter()

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var devices []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Len(t, devices, 17)
	assert.Equal(t, "adc", devices[0]["protocol"])

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, "pong", rec.Body.String())
}

func TestSerialPorts(t *testing.T) {
	orig := hal.ListSerialPorts
	hal.ListSerialPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"},
			{Name: "/dev/ttyS0"},
		}, nil
	}
	defer func() { hal.ListSerialPorts = orig }()
	r, _ := newTestRouter()

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/serial-ports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ports []serialPort
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ports))
	assert.Equal(t, []serialPort{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"},
		{Name: "/dev/ttyS0"},
	}, ports)
}
