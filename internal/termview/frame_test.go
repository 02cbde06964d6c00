package termview

import (
	"testing"

	"github.com/annel0/arena-game/internal/arena"
	"github.com/annel0/arena-game/internal/game"
	"github.com/annel0/arena-game/internal/vec"
	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/assert"
)

func lines(grid [][]rune) []string {
	out := make([]string, len(grid))
	for i, row := range grid {
		out[i] = string(row)
	}
	return out
}

func TestFrame(t *testing.T) {
	snapshot := game.Snapshot{
		ArenaNumber: 1,
		Terrain:     []string{"#####", "#...#", "#...#", "#...#", "#####"},
		Spells:      []game.SpellSnapshot{{ID: 1, X: 2, Y: 1}, {ID: 2, X: 3, Y: 3}},
		Entities: []game.EntitySnapshot{
			{ID: 1, Symbol: "A", X: 1, Y: 1},
			{ID: 2, Symbol: "B", X: 3, Y: 3},
		},
	}

	assert.Equal(t, []string{
		"#####",
		"#A*.#",
		"#...#",
		"#..B#",
		"#####",
	}, lines(Frame(snapshot)), "сущности рисуются поверх заклинаний")

	assert.Equal(t, "#...#", snapshot.Terrain[1], "снимок не изменяется")
	assert.Empty(t, Frame(game.Snapshot{}))
}

func TestLegend(t *testing.T) {
	snapshot := game.Snapshot{
		ArenaNumber:  3,
		Status:       "started",
		WinnerPoints: 10,
		Entities:     []game.EntitySnapshot{{ID: 7, Symbol: "A", Health: 40, MaxHealth: 100}},
		Players: []game.PlayerSnapshot{
			{Symbol: "A", EntityID: 7, TotalPoints: 4, PartialPoints: 0},
			{Symbol: "B", EntityID: 8, TotalPoints: 12, PartialPoints: 2, Dead: true},
		},
	}

	assert.Equal(t, []string{
		"Арена 3  статус: started  до победы: 10",
		"A    4 (+0)  ♥40/100",
		"B   12 (+2)  выбыл",
	}, Legend(snapshot))
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 1, ColumnWidth([][]rune{[]rune("#A.#")}))
	assert.Equal(t, 2, ColumnWidth([][]rune{[]rune("#界.#")}))
	assert.Equal(t, 1, ColumnWidth(nil))
}

func TestKeyAction(t *testing.T) {
	key := func(k termbox.Key) termbox.Event { return termbox.Event{Type: termbox.EventKey, Key: k} }

	action, ok := KeyAction(key(termbox.KeyArrowLeft), vec.Down)
	assert.True(t, ok)
	assert.Equal(t, arena.Walk(vec.Left), action)

	action, ok = KeyAction(key(termbox.KeySpace), vec.Right)
	assert.True(t, ok)
	assert.Equal(t, arena.Cast(vec.Right, arena.StrikeSkill), action)

	_, ok = KeyAction(key(termbox.KeyEnter), vec.Down)
	assert.False(t, ok)
	_, ok = KeyAction(termbox.Event{Type: termbox.EventResize}, vec.Down)
	assert.False(t, ok)

	assert.True(t, IsQuit(key(termbox.KeyEsc)))
	assert.True(t, IsQuit(termbox.Event{Type: termbox.EventKey, Ch: 'q'}))
	assert.False(t, IsQuit(key(termbox.KeyArrowUp)))
}
