package arena

import (
	"io"
	"testing"
	"time"

	"github.com/annel0/arena-game/internal/character"
	"github.com/annel0/arena-game/internal/logging"
	"github.com/annel0/arena-game/internal/vec"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func testCharacter(t *testing.T, symbol rune, behaviour string) *character.Character {
	t.Helper()
	c, err := character.NewBuilder().
		ID(character.ID(symbol)).
		Symbol(symbol).
		BehaviourName(behaviour).
		MaxHealth(100).
		MaxEnergy(50).
		SpeedBase(2).
		Build()
	require.NoError(t, err)
	return c
}

func testArena(size, players int) *Arena {
	return New(size, players,
		WithClock(func() time.Time { return t0 }),
		WithLogger(logging.NewWriterLogger("arena", io.Discard, logging.OFF)),
	)
}

// scripted возвращает заранее заданные действия и запоминает, что видел
type scripted struct {
	actions   []EntityAction
	onDestroy []EntityAction
	calls     int
	destroyed int
	observe   func(self EntityState, entities EntityView)
}

func (s *scripted) Update(now time.Time, self EntityState, m *Map, entities EntityView) []EntityAction {
	s.calls++
	if s.observe != nil {
		s.observe(self, entities)
	}
	return s.actions
}

func (s *scripted) Destroyed() []EntityAction {
	s.destroyed++
	return s.onDestroy
}

func pos(x, y int) vec.Vec2 {
	return vec.Vec2{X: x, Y: y}
}
