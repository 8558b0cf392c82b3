package testjig

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/jigworks/device-testjig-go/internal/cache"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	common.LoggingClient = logger.NewMockClient()
	common.ConfigDir = "./res"
	cache.InitCache(common.ConfigDir)
	os.Exit(m.Run())
}

func newTestService(t *testing.T) *Service {
	web := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(web, "homepage.html"), []byte("<h1>jig</h1>"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(web, "static"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(web, "static", "app.js"), []byte("run()"), 0644))

	config := &common.Config{
		Service:  common.ServiceInfo{Host: "127.0.0.1", Port: 8000, WebRoot: web},
		Hardware: common.HardwareInfo{I2CBus: "1"},
		Schedules: []common.ScheduleInfo{
			{Name: "light", Protocol: "i2c", Device: "bh1750", Cron: "@every 1h"},
		},
	}
	s, err := NewService(config, logger.NewMockClient())
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop(true) })
	return s
}

func get(t *testing.T, s *Service, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestNewServiceRejectsNil(t *testing.T) {
	_, err := NewService(nil, logger.NewMockClient())
	assert.Error(t, err)
	_, err = NewService(&common.Config{}, nil)
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	s := newTestService(t)
	assert.Equal(t, s, RunningService())

	rec := get(t, s, http.MethodGet, "/api/v1/ping", "")
	assert.Equal(t, "pong", rec.Body.String())

	for _, path := range []string{"/", "/homepage.html"} {
		rec = get(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "<h1>jig</h1>", rec.Body.String(), path)
	}
	rec = get(t, s, http.MethodGet, "/rs485.html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s, http.MethodGet, "/static/app.js", "")
	assert.Equal(t, "run()", rec.Body.String())

	rec = get(t, s, http.MethodPost, "/stop-test", "")
	assert.JSONEq(t, `{"result":"Test stopped"}`, rec.Body.String())

	rec = get(t, s, http.MethodGet, "/stop-test", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCatalogCallback(t *testing.T) {
	s := newTestService(t)

	rec := get(t, s, http.MethodPost, "/api/v1/callback", `{"type":"catalog","id":"devices.yaml"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = get(t, s, http.MethodPost, "/api/v1/callback", `{"type":"DEVICE","id":"x"}`)
	assert.Equal(t, "OK", rec.Body.String())

	rec = get(t, s, http.MethodPost, "/api/v1/callback", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartRegistersSchedulesAndStop(t *testing.T) {
	s := newTestService(t)
	s.svcInfo.Port = 0
	errs := make(chan error, 1)

	require.NoError(t, s.Start(errs))
	assert.Equal(t, []string{"light"}, s.scheduler.Names())
	assert.False(t, s.supervisor.Active(common.RunKindSoak))

	assert.NoError(t, s.Stop(false))
	assert.NoError(t, s.Stop(false))
}
