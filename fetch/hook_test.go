package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedProducer returns a producer whose nth call blocks until release[n] yields its result
type gatedProducer struct {
	calls   atomic.Int32
	started chan int
	release []chan string
}

func newGatedProducer(n int) *gatedProducer {
	g := &gatedProducer{started: make(chan int, n), release: make([]chan string, n+1)}
	for i := range g.release {
		g.release[i] = make(chan string, 1)
	}
	return g
}

func (g *gatedProducer) produce(ctx context.Context) (string, error) {
	n := int(g.calls.Add(1))
	g.started <- n
	v := <-g.release[n]
	if v == "" {
		return "", errors.New("boom")
	}
	return v, nil
}

func waitStarted(t *testing.T, g *gatedProducer, want int) {
	t.Helper()
	select {
	case n := <-g.started:
		require.Equal(t, want, n)
	case <-time.After(time.Second):
		t.Fatalf("producer call %d did not start", want)
	}
}

func waitSettled[T any](t *testing.T, h *Hook[T]) State[T] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	state, err := h.Wait(ctx)
	require.NoError(t, err)
	return state
}

func TestHook_Lifecycle(t *testing.T) {
	ctx := context.Background()
	calls := 0
	fail := false
	h := New(ctx, func(context.Context) (int, error) {
		calls++
		if fail {
			return 0, errors.New("upstream down")
		}
		return 42, nil
	}, false)

	assert.Equal(t, StatusIdle, h.State().Status)
	assert.Equal(t, 0, calls)

	state, err := h.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Equal(t, 42, state.Data)
	assert.NoError(t, state.Err)

	h.Reset()
	assert.Equal(t, State[int]{Status: StatusIdle}, h.State())

	fail = true
	state, err = h.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, state.Status)
	assert.EqualError(t, state.Err, "upstream down")
	assert.Zero(t, state.Data)

	h.Reset()
	assert.Equal(t, State[int]{Status: StatusIdle}, h.State())
	assert.Equal(t, 2, calls)
}

func TestHook_AutoRun(t *testing.T) {
	g := newGatedProducer(1)
	h := New(context.Background(), g.produce, true)

	// loading before the producer has returned
	assert.Equal(t, StatusLoading, h.State().Status)
	assert.True(t, h.State().Loading())

	waitStarted(t, g, 1)
	g.release[1] <- "dune"
	state := waitSettled(t, h)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Equal(t, "dune", state.Data)
}

func TestHook_RefetchKeepsDataWhileLoading(t *testing.T) {
	g := newGatedProducer(2)
	h := New(context.Background(), g.produce, true)
	waitStarted(t, g, 1)
	g.release[1] <- "first"
	waitSettled(t, h)

	h.Refetch(context.Background())
	state := h.State()
	assert.Equal(t, StatusLoading, state.Status)
	assert.Equal(t, "first", state.Data)

	waitStarted(t, g, 2)
	g.release[2] <- ""
	state = waitSettled(t, h)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Error(t, state.Err)
}

func TestHook_EpochGuardDiscardsStaleResults(t *testing.T) {
	g := newGatedProducer(2)
	h := New(context.Background(), g.produce, true)
	waitStarted(t, g, 1)

	h.Refetch(context.Background())
	waitStarted(t, g, 2)

	// the newer fetch finishes first, the older one afterwards
	g.release[2] <- "second"
	g.release[1] <- "first"

	state := waitSettled(t, h)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Equal(t, "second", state.Data)
}

func TestHook_WithoutEpochGuardLastSettleWins(t *testing.T) {
	g := newGatedProducer(2)
	h := New(context.Background(), g.produce, true, WithoutEpochGuard())
	waitStarted(t, g, 1)

	h.Refetch(context.Background())
	waitStarted(t, g, 2)

	g.release[2] <- "second"
	require.Eventually(t, func() bool { return h.State().Data == "second" }, time.Second, time.Millisecond)

	g.release[1] <- "first"
	state := waitSettled(t, h)
	assert.Equal(t, "first", state.Data)
}

func TestHook_ResetDuringFetch(t *testing.T) {
	g := newGatedProducer(1)
	h := New(context.Background(), g.produce, true)
	waitStarted(t, g, 1)

	h.Reset()
	g.release[1] <- "late"

	state := waitSettled(t, h)
	assert.Equal(t, StatusIdle, state.Status)
	assert.Empty(t, state.Data)
}

func TestHook_WaitHonoursContext(t *testing.T) {
	g := newGatedProducer(1)
	h := New(context.Background(), g.produce, true)
	waitStarted(t, g, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	state, err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusLoading, state.Status)

	g.release[1] <- "done"
	assert.Equal(t, "done", waitSettled(t, h).Data)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "loaded", StatusLoaded.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(9).String())
}
