package supervisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeginCancelsPreviousRunOfSameKind(t *testing.T) {
	s := New()
	first := s.Begin(context.Background(), "test")
	other := s.Begin(context.Background(), "rs485")
	second := s.Begin(context.Background(), "test")

	assert.Error(t, first.Ctx.Err())
	assert.NoError(t, second.Ctx.Err())
	assert.NoError(t, other.Ctx.Err())
	assert.NotEqual(t, first.ID, second.ID)

	// releasing the replaced run must not clear the newer one
	first.Done()
	assert.True(t, s.Active("test"))
}

func TestStop(t *testing.T) {
	s := New()
	r := s.Begin(context.Background(), "test")

	assert.True(t, s.Stop("test"))
	assert.Error(t, r.Ctx.Err())
	assert.False(t, s.Active("test"))
	assert.False(t, s.Stop("test"))
}

func TestStopAll(t *testing.T) {
	s := New()
	a := s.Begin(context.Background(), "test")
	b := s.Begin(context.Background(), "rs485")

	s.StopAll()

	assert.Error(t, a.Ctx.Err())
	assert.Error(t, b.Ctx.Err())
	assert.False(t, s.Active("test"))
	assert.False(t, s.Active("rs485"))
}

func TestParentCancellationEndsRun(t *testing.T) {
	s := New()
	parent, cancel := context.WithCancel(context.Background())
	r := s.Begin(parent, "test")

	cancel()
	<-r.Ctx.Done()
	r.Done()
	assert.False(t, s.Active("test"))
}

func TestTryBeginRespectsActiveRuns(t *testing.T) {
	s := New()
	test := s.Begin(context.Background(), "test")

	_, ok := s.TryBegin(context.Background(), "soak", "test", "rs485")
	assert.False(t, ok)
	assert.False(t, s.Active("soak"))

	test.Done()
	soak, ok := s.TryBegin(context.Background(), "soak", "test", "rs485")
	assert.True(t, ok)
	assert.NoError(t, soak.Ctx.Err())

	_, ok = s.TryBegin(context.Background(), "soak", "test", "rs485")
	assert.False(t, ok)

	soak.Done()
	assert.False(t, s.Active("soak"))
}

func TestBeginPreemptsListedKinds(t *testing.T) {
	s := New()
	soak, ok := s.TryBegin(context.Background(), "soak", "test")
	assert.True(t, ok)
	rs485 := s.Begin(context.Background(), "rs485")

	test := s.Begin(context.Background(), "test", "soak")

	assert.Error(t, soak.Ctx.Err())
	assert.False(t, s.Active("soak"))
	assert.NoError(t, rs485.Ctx.Err())
	assert.NoError(t, test.Ctx.Err())
}
