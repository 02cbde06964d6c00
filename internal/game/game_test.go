package game

import (
	"io"
	"testing"
	"time"

	"github.com/annel0/arena-game/internal/arena"
	"github.com/annel0/arena-game/internal/logging"
	"github.com/annel0/arena-game/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// killSkill обнуляет здоровье заклинателя: смерть происходит внутри тика арены
const killSkill arena.SkillID = 950

func init() {
	arena.RegisterSkill(killSkill, func(ctx *arena.CastContext) {
		ctx.Caster.SetHealth(0)
	})
}

func quietOptions(now *time.Time) []Option {
	discard := logging.NewWriterLogger("test", io.Discard, logging.OFF)
	return []Option{
		WithLogger(discard),
		WithArenaOptions(
			arena.WithClock(func() time.Time { return *now }),
			arena.WithLogger(discard),
		),
	}
}

func newTestGame(t *testing.T, winnerPoints int, symbols ...rune) (*Game, *time.Time) {
	t.Helper()
	now := t0
	g, err := New(12, winnerPoints, symbols, quietOptions(&now)...)
	require.NoError(t, err)
	return g, &now
}

// kill ставит в очередь действие, после которого игрок погибнет в следующем Step
func kill(t *testing.T, g *Game, symbol rune) {
	t.Helper()
	require.True(t, g.Command(symbol, arena.Cast(vec.Down, killSkill)))
}

func points(g *Game, symbol rune) int {
	player, _ := g.Player(symbol)
	return player.TotalPoints()
}

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		name         string
		mapSize      int
		winnerPoints int
		roster       []Participant
	}{
		{"пустой состав", 10, 5, nil},
		{"маленькая карта", 4, 5, []Participant{{Symbol: 'A'}}},
		{"не помещаются игроки", 5, 5, []Participant{{'A', ""}, {'B', ""}, {'C', ""}, {'D', ""}, {'E', ""}, {'F', ""}, {'G', ""}, {'H', ""}, {'I', ""}}},
		{"нулевой порог победы", 10, 0, []Participant{{Symbol: 'A'}}},
		{"дубликат символа", 10, 5, []Participant{{Symbol: 'A'}, {Symbol: 'A'}}},
		{"пустой символ", 10, 5, []Participant{{Symbol: 0}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewWithRoster(tc.mapSize, tc.winnerPoints, tc.roster)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("неизвестное поведение", func(t *testing.T) {
		_, err := NewWithRoster(10, 5, []Participant{{Symbol: 'A', Behaviour: "dragon"}})
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, arena.ErrUnknownBehaviour)
	})
}

func TestNew_CharactersAndPlayers(t *testing.T) {
	g, _ := newTestGame(t, 10, 'X', 'Y', 'Z')

	characters := g.Characters().All()
	require.Len(t, characters, 3)
	for i, c := range characters {
		assert.EqualValues(t, i, c.ID(), "ID выдаются последовательно")
		assert.Equal(t, MaxLife, c.MaxHealth())
		assert.Equal(t, MaxEnergy, c.MaxEnergy())
		assert.Equal(t, SpeedBase, c.SpeedBase())
	}

	players := g.Players()
	require.Len(t, players, 3)
	assert.Equal(t, 'X', players[0].Symbol())
	assert.Equal(t, 2, players[2].Index())

	z, ok := g.Player('Z')
	require.True(t, ok)
	c, _ := g.Characters().BySymbol('Z')
	assert.Same(t, c, z.Character(), "игрок и каталог разделяют персонажа")

	assert.Nil(t, g.Arena())
	assert.Equal(t, StatusNotStarted, g.Status())
	assert.True(t, z.IsDead(), "без арены игрок не жив")
}

func TestGame_CreateNewArena(t *testing.T) {
	g, _ := newTestGame(t, 10, 'A', 'B', 'C', 'D')

	g.CreateNewArena()

	require.NotNil(t, g.Arena())
	assert.Equal(t, 1, g.ArenaNumber())
	assert.Equal(t, StatusStarted, g.Status())
	assert.Equal(t, 4, g.Arena().EntityCount())

	positions := make(map[vec.Vec2]rune)
	for _, player := range g.Players() {
		entity := player.Entity()
		require.NotNil(t, entity)
		assert.Equal(t, player.EntityID(), entity.ID())
		assert.Equal(t, g.Arena().Map().InitialPosition(player.Index()), entity.Position())
		_, dup := positions[entity.Position()]
		assert.False(t, dup, "стартовые позиции не должны совпадать")
		positions[entity.Position()] = player.Symbol()
		assert.False(t, player.IsDead())
	}

	events := g.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventRoundStarted, events[0].Kind)
	assert.Empty(t, g.DrainEvents(), "буфер событий очищается")

	g.CreateNewArena()
	assert.Equal(t, 2, g.ArenaNumber())
}

func TestGame_StepWithoutArenaPanics(t *testing.T) {
	g, _ := newTestGame(t, 10, 'A', 'B')
	assert.Panics(t, func() { g.Step() })
	assert.Panics(t, func() { g.EndRound() })
}

func TestGame_StepScoresByDeathOrder(t *testing.T) {
	g, now := newTestGame(t, 100, '1', '2', '3', '4')
	g.CreateNewArena()
	g.DrainEvents()

	kill(t, g, '1')
	*now = now.Add(50 * time.Millisecond)
	g.Step()

	kill(t, g, '2')
	*now = now.Add(50 * time.Millisecond)
	g.Step()

	assert.Equal(t, 0, points(g, '1'), "первый выбывший получает 0")
	assert.Equal(t, 1, points(g, '2'))
	assert.Less(t, points(g, '1'), points(g, '2'), "раньше выбыл - меньше очков")
	assert.Equal(t, []rune{'3', '4'}, g.LivingPlayers())
	assert.False(t, g.IsRoundOver())

	events := g.DrainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventPlayerEliminated, events[0].Kind)
	assert.Equal(t, "1", events[0].Symbol)
	assert.Equal(t, 4, events[0].AliveBefore)
	assert.Equal(t, 0, events[0].Points)
	assert.Equal(t, "2", events[1].Symbol)
	assert.Equal(t, 3, events[1].AliveBefore)
	assert.Equal(t, 1, events[1].Points)
}

func TestGame_SimultaneousDeathsShareAward(t *testing.T) {
	g, now := newTestGame(t, 100, 'A', 'B', 'C', 'D')
	g.CreateNewArena()

	kill(t, g, 'A')
	*now = now.Add(time.Millisecond)
	g.Step()

	kill(t, g, 'B')
	kill(t, g, 'C')
	*now = now.Add(time.Millisecond)
	g.Step()

	assert.Equal(t, 1, points(g, 'B'))
	assert.Equal(t, 1, points(g, 'C'), "выбывшие в одном тике получают одинаково")
	assert.True(t, g.IsRoundOver())
}

func TestGame_EndRoundRewardsSurvivors(t *testing.T) {
	g, now := newTestGame(t, 100, 'A', 'B', 'C')
	g.CreateNewArena()

	kill(t, g, 'A')
	g.Step()
	kill(t, g, 'B')
	*now = now.Add(time.Millisecond)
	g.Step()
	g.DrainEvents()

	g.EndRound()

	assert.Equal(t, 0, points(g, 'A'))
	assert.Equal(t, 1, points(g, 'B'))
	assert.Equal(t, 2, points(g, 'C'), "выживший получает больше всех")
	assert.Nil(t, g.Arena())
	assert.False(t, g.IsRoundOver(), "без арены раунд не идёт")

	events := g.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventRoundFinished, events[0].Kind)
	assert.Equal(t, []string{"C", "B", "A"}, events[0].Ranking)
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 2}, events[0].Scores)
}

func TestGame_PartialPointsResetAcrossRounds(t *testing.T) {
	g, now := newTestGame(t, 100, 'A', 'B')

	g.CreateNewArena()
	kill(t, g, 'A')
	g.Step()
	g.EndRound()

	b, _ := g.Player('B')
	assert.Equal(t, 1, b.TotalPoints())
	assert.Equal(t, 1, b.PartialPoints())

	*now = now.Add(time.Second)
	g.CreateNewArena()
	assert.Equal(t, 0, b.PartialPoints(), "очки раунда обнуляются")
	assert.Equal(t, 1, b.TotalPoints(), "общий счёт не меняется")

	a, _ := g.Player('A')
	assert.False(t, a.IsDead(), "в новом раунде игрок снова жив")

	// Шаг без смертей не начисляет ничего повторно
	*now = now.Add(time.Second)
	g.Step()
	assert.Equal(t, 1, b.TotalPoints())
	assert.Equal(t, 0, a.TotalPoints())
}

func TestGame_HasFinished(t *testing.T) {
	g, now := newTestGame(t, 2, 'A', 'B', 'C')
	g.CreateNewArena()

	for i := 0; i < 3; i++ {
		*now = now.Add(time.Second)
		g.Step()
		assert.False(t, g.HasFinished(), "без очков игра не закончена")
	}

	kill(t, g, 'A')
	g.Step()
	assert.False(t, g.HasFinished())

	kill(t, g, 'B')
	g.Step()
	assert.False(t, g.HasFinished(), "у B одно очко из двух")

	g.EndRound()
	assert.True(t, g.HasFinished(), "C набрал 2 очка")
	assert.Equal(t, StatusFinished, g.Status())

	events := g.DrainEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, EventGameFinished, events[len(events)-1].Kind)
}

func TestGame_PoleOrdering(t *testing.T) {
	g, _ := newTestGame(t, 100, 'A', 'B', 'C', 'D')

	scores := map[rune]int{'A': 1, 'B': 5, 'C': 1, 'D': 3}
	for symbol, score := range scores {
		player, _ := g.Player(symbol)
		player.UpdatePoints(score)
	}

	pole := g.Pole()
	require.Len(t, pole, 4)
	for i := 1; i < len(pole); i++ {
		assert.GreaterOrEqual(t, pole[i-1].TotalPoints(), pole[i].TotalPoints())
	}

	symbols := make([]rune, len(pole))
	for i, p := range pole {
		symbols[i] = p.Symbol()
	}
	assert.Equal(t, []rune{'B', 'D', 'A', 'C'}, symbols, "равные очки сохраняют порядок состава")
}

func TestGame_Command(t *testing.T) {
	g, now := newTestGame(t, 10, 'A', 'B')

	assert.Panics(t, func() { g.Command('A', arena.Walk(vec.Up)) }, "без арены")

	g.CreateNewArena()
	assert.Panics(t, func() { g.Command('Q', arena.Walk(vec.Up)) }, "неизвестный игрок")

	a, _ := g.Player('A')
	start := a.Entity().Position()
	assert.True(t, g.Command('A', arena.Walk(vec.Right)))

	*now = now.Add(time.Second)
	g.Step()
	assert.Equal(t, vec.Right, a.Entity().Direction())
	assert.Equal(t, start.Add(vec.Vec2{X: 1}), a.Entity().Position())
}

func TestPlayer_PointsMonotonic(t *testing.T) {
	g, _ := newTestGame(t, 10, 'A')
	player, _ := g.Player('A')

	player.UpdatePoints(3)
	player.UpdatePoints(-5)
	player.UpdatePoints(0)
	assert.Equal(t, 3, player.TotalPoints(), "общий счёт только растёт")

	player.ResetPartialPoints()
	assert.Equal(t, 0, player.PartialPoints())
	assert.Equal(t, 3, player.TotalPoints())
}

func TestGame_Snapshot(t *testing.T) {
	g, _ := newTestGame(t, 10, 'A', 'B')

	snap := g.Snapshot()
	assert.Equal(t, "not_started", snap.Status)
	assert.Empty(t, snap.Terrain)
	require.Len(t, snap.Players, 2)

	g.CreateNewArena()
	kill(t, g, 'B')
	g.Step()

	snap = g.Snapshot()
	assert.Equal(t, 1, snap.ArenaNumber)
	assert.Equal(t, 12, snap.MapSize)
	assert.Equal(t, 10, snap.WinnerPoints)
	require.Len(t, snap.Terrain, 12)
	assert.Equal(t, "############", snap.Terrain[0])
	assert.Equal(t, "#..........#", snap.Terrain[5])
	require.Len(t, snap.Entities, 2)
	assert.Equal(t, "A", snap.Entities[0].Symbol)
	assert.Equal(t, MaxLife, snap.Entities[0].Health)
	assert.Equal(t, 0, snap.Entities[1].Health)
	assert.True(t, snap.Players[1].Dead)

	// Снимок не связан с живым состоянием
	a, _ := g.Player('A')
	a.Entity().SetHealth(1)
	assert.Equal(t, MaxLife, snap.Entities[0].Health)
}
