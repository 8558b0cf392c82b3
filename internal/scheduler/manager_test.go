package scheduler

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/supervisor"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	runs   []string
	lines  []string
	during func(ctx context.Context) error
}

func (f *fakeRunner) Schedulable(protocol, device string) error {
	if protocol != "i2c" {
		return errors.New("unknown protocol")
	}
	return nil
}

func (f *fakeRunner) RunOnce(ctx context.Context, protocol, device string, emit models.Emitter) error {
	f.runs = append(f.runs, protocol+"/"+device)
	for _, l := range f.lines {
		emit(l)
	}
	if f.during != nil {
		return f.during(ctx)
	}
	return nil
}

func bh1750(name string) common.ScheduleInfo {
	return common.ScheduleInfo{Name: name, Protocol: "i2c", Device: "bh1750", Cron: "@every 1h"}
}

func TestAddSchedule(t *testing.T) {
	m := NewManager(logger.NewMockClient(), &fakeRunner{}, supervisor.New())
	defer m.StopScheduler()

	require.NoError(t, m.AddSchedule(bh1750("light")))
	assert.Error(t, m.AddSchedule(bh1750("light")))

	err := m.AddSchedule(common.ScheduleInfo{Name: "bus", Protocol: "can", Device: "x", Cron: "@every 1h"})
	assert.Error(t, err)

	bad := bh1750("bad-cron")
	bad.Cron = "every now and then"
	assert.Error(t, m.AddSchedule(bad))

	assert.Equal(t, []string{"light"}, m.Names())
}

func TestRemoveSchedule(t *testing.T) {
	m := NewManager(logger.NewMockClient(), &fakeRunner{}, supervisor.New())
	defer m.StopScheduler()

	require.NoError(t, m.AddSchedule(bh1750("light")))
	require.NoError(t, m.RemoveSchedule("light"))
	assert.Empty(t, m.Names())
	assert.Empty(t, m.cr.Entries())
	assert.Error(t, m.RemoveSchedule("light"))
}

func TestStartSchedulerSkipsInvalid(t *testing.T) {
	m := NewManager(logger.NewMockClient(), &fakeRunner{}, supervisor.New())
	m.StartScheduler([]common.ScheduleInfo{
		bh1750("a"),
		bh1750("a"),
		{Name: "b", Protocol: "spi", Device: "oled", Cron: "@every 1m"},
		bh1750("c"),
	})
	defer m.StopScheduler()

	names := m.Names()
	sort.Strings(names)
	assert.Equal(t, []string{"a", "c"}, names)
	assert.Len(t, m.cr.Entries(), 2)
}

func TestJobRunsOneCycle(t *testing.T) {
	runner := &fakeRunner{lines: []string{"Light Intensity: 10.00 lux"}}
	sup := supervisor.New()
	m := NewManager(logger.NewMockClient(), runner, sup)
	defer m.StopScheduler()

	job := &soakJob{m: m, sch: bh1750("light")}
	job.Run()
	assert.Equal(t, []string{"i2c/bh1750"}, runner.runs)
	assert.False(t, sup.Active(common.RunKindSoak))

	test := sup.Begin(context.Background(), common.RunKindTest)
	job.Run()
	assert.Len(t, runner.runs, 1)
	test.Done()

	rs485 := sup.Begin(context.Background(), common.RunKindRS485)
	job.Run()
	assert.Len(t, runner.runs, 1)
	rs485.Done()

	soak, ok := sup.TryBegin(context.Background(), common.RunKindSoak)
	require.True(t, ok)
	job.Run()
	assert.Len(t, runner.runs, 1)
	soak.Done()

	job.Run()
	assert.Len(t, runner.runs, 2)
}

func TestInteractiveRunPreemptsSoakCycle(t *testing.T) {
	sup := supervisor.New()
	var soakErr error
	runner := &fakeRunner{}
	runner.during = func(ctx context.Context) error {
		// a run-test request arrives mid-cycle
		test := sup.Begin(context.Background(), common.RunKindTest, common.RunKindSoak)
		defer test.Done()
		soakErr = ctx.Err()
		return soakErr
	}
	m := NewManager(logger.NewMockClient(), runner, sup)
	defer m.StopScheduler()

	job := &soakJob{m: m, sch: bh1750("light")}
	job.Run()

	assert.Equal(t, context.Canceled, soakErr)
	assert.False(t, sup.Active(common.RunKindSoak))
}
