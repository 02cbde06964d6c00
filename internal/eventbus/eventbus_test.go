package eventbus

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/arena-game/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type elimination struct {
	Symbol string `json:"symbol"`
	Points int    `json:"points"`
}

func envelope(t *testing.T, eventType string, priority int) *Envelope {
	t.Helper()
	ev, err := NewEnvelope("test", eventType, priority, elimination{Symbol: "A", Points: 2})
	require.NoError(t, err)
	return ev
}

func TestNewEnvelope(t *testing.T) {
	ev := envelope(t, "PlayerEliminated", HighPriority)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "test", ev.Source)
	assert.Equal(t, "PlayerEliminated", ev.EventType)
	assert.Equal(t, 1, ev.Version)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())

	var payload elimination
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, elimination{Symbol: "A", Points: 2}, payload)

	other := envelope(t, "PlayerEliminated", HighPriority)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestFilter_Match(t *testing.T) {
	ev := envelope(t, "RoundStarted", 0)

	assert.True(t, Filter{}.Match(ev))
	assert.True(t, Filter{Types: []string{"GameFinished", "RoundStarted"}}.Match(ev))
	assert.False(t, Filter{Types: []string{"GameFinished"}}.Match(ev))
	assert.False(t, Filter{Sources: []string{"other"}}.Match(ev))
}

// collector собирает доставленные события
type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.EventType)
	}
	return out
}

func TestMemoryBus_DeliversInOrderToMatchingSubscribers(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	all := &collector{}
	finished := &collector{}
	_, err := bus.Subscribe(ctx, Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, Filter{Types: []string{"RoundFinished"}}, finished.handle)
	require.NoError(t, err)

	for _, kind := range []string{"RoundStarted", "PlayerEliminated", "RoundFinished"} {
		require.NoError(t, bus.Publish(ctx, envelope(t, kind, 0)))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{"RoundStarted", "PlayerEliminated", "RoundFinished"}, all.types())
	assert.Equal(t, []string{"RoundFinished"}, finished.types())

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(4), stats.Consumed)
	assert.Zero(t, stats.InFlight)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	ctx := context.Background()

	c := &collector{}
	sub, err := bus.Subscribe(ctx, Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, envelope(t, "RoundStarted", 0)))
	require.NoError(t, bus.Close())
	assert.Empty(t, c.types())
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	_, err := bus.Subscribe(ctx, Filter{}, func(context.Context, *Envelope) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})
	require.NoError(t, err)

	// Первое событие занимает обработчик, второе заполняет буфер
	require.NoError(t, bus.Publish(ctx, envelope(t, "RoundStarted", 0)))
	<-started
	require.NoError(t, bus.Publish(ctx, envelope(t, "RoundStarted", 0)))

	require.NoError(t, bus.Publish(ctx, envelope(t, "RoundStarted", 0)))
	assert.Equal(t, uint64(1), bus.Metrics().Dropped)

	// Высокий приоритет ждёт места до отмены контекста
	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(timeout, envelope(t, "GameFinished", HighPriority)), context.DeadlineExceeded)

	close(release)
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(ctx, envelope(t, "RoundStarted", 0)), ErrClosed)
}

func TestMetricsExporter_Collect(t *testing.T) {
	bus := NewMemoryBus(8)
	reg := prometheus.NewRegistry()
	exporter, err := NewMetricsExporter(bus, reg, time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, envelope(t, "RoundStarted", 0)))
	require.NoError(t, bus.Publish(ctx, envelope(t, "RoundFinished", 0)))
	require.NoError(t, bus.Close())

	exporter.Collect()
	exporter.Collect()
	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.published))
	assert.Equal(t, 0.0, testutil.ToFloat64(exporter.inflight))

	_, err = NewMetricsExporter(bus, reg, time.Second)
	assert.Error(t, err, "повторная регистрация в том же реестре")
}

func TestStartLoggingListener(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger("eventbus", &buf, logging.DEBUG)

	bus := NewMemoryBus(4)
	_, err := StartLoggingListener(context.Background(), bus, logger)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), envelope(t, "PlayerEliminated", HighPriority)))
	require.NoError(t, bus.Close())

	assert.Contains(t, buf.String(), "PlayerEliminated")
	assert.Contains(t, buf.String(), `"symbol":"A"`)
}
