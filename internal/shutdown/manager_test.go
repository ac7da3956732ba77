package shutdown

import (
	"testing"
	"time"

	"grid-splitter/internal/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestShutdownReverseOrder(t *testing.T) {
	m := NewManager(logger.Nop())

	var order []string
	m.Register("first", Func(func() { order = append(order, "first") }))
	m.Register("second", Func(func() { order = append(order, "second") }))

	m.Shutdown()
	assert.Equal(t, []string{"second", "first"}, order)

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
	assert.Error(t, m.Context().Err())
}

func TestShutdownIsIdempotent(t *testing.T) {
	m := NewManager(logger.Nop())

	calls := 0
	m.Register("counter", Func(func() { calls++ }))

	m.Shutdown()
	m.Shutdown()
	assert.Equal(t, 1, calls)
}

func TestShutdownTimesOutSlowComponent(t *testing.T) {
	m := NewManager(logger.Nop())
	m.SetTimeout(10 * time.Millisecond)

	release := make(chan struct{})
	defer close(release)

	ran := false
	m.Register("after", Func(func() { ran = true }))
	m.Register("stuck", Func(func() { <-release }))

	start := time.Now()
	m.Shutdown()
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, ran)
}

func TestListenStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreAnyFunction("os/signal.loop"))

	m := NewManager(logger.Nop())
	stop := m.Listen(nil)
	stop()
	stop()
}
