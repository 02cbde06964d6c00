package leaderboard

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/arena-game/internal/eventbus"
	"github.com/annel0/arena-game/internal/game"
	"github.com/annel0/arena-game/internal/logging"
)

func TestMembers(t *testing.T) {
	members := Members(map[string]int{"C": 2, "A": 7, "B": 0})
	require.Len(t, members, 3)
	assert.Equal(t, redis.Z{Score: 7, Member: "A"}, *members[0])
	assert.Equal(t, redis.Z{Score: 0, Member: "B"}, *members[1])
	assert.Equal(t, redis.Z{Score: 2, Member: "C"}, *members[2])

	assert.Empty(t, Members(nil))
}

func TestNewRedisBoard_Unreachable(t *testing.T) {
	logger := logging.NewWriterLogger("leaderboard", io.Discard, logging.OFF)
	_, err := NewRedisBoard(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond}, logger)
	assert.Error(t, err)
}

// Интеграционный тест запускается при заданном ARENA_TEST_REDIS (host:port)
func TestRedisBoard_Integration(t *testing.T) {
	addr := os.Getenv("ARENA_TEST_REDIS")
	if addr == "" {
		t.Skip("ARENA_TEST_REDIS не задан")
	}

	logger := logging.NewWriterLogger("leaderboard", io.Discard, logging.OFF)
	ctx := context.Background()
	board, err := NewRedisBoard(ctx, Config{Addr: addr, Key: "arena:test:" + t.Name()}, logger)
	require.NoError(t, err)
	defer board.Close()
	defer board.client.Del(ctx, board.key)

	require.NoError(t, board.Update(ctx, map[string]int{"A": 3, "B": 5, "C": 1}))
	top, err := board.Top(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Symbol: "B", Points: 5}, {Symbol: "A", Points: 3}}, top)

	bus := eventbus.NewMemoryBus(8)
	_, err = board.Subscribe(ctx, bus)
	require.NoError(t, err)

	ev, err := eventbus.NewEnvelope("test", string(game.EventRoundFinished), 0,
		game.Event{Kind: game.EventRoundFinished, ArenaNumber: 2, Scores: map[string]int{"A": 9}})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))
	require.NoError(t, bus.Close())

	top, err = board.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Symbol: "A", Points: 9}}, top)
}
