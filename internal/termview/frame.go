package termview

import (
	"fmt"

	"github.com/annel0/arena-game/internal/game"
	"github.com/mattn/go-runewidth"
)

// SpellRune символ следа заклинания на карте
const SpellRune = '*'

// Frame рисует карту снимка построчно: местность, поверх неё заклинания,
// поверх всего сущности. Без активной арены кадр пуст.
func Frame(s game.Snapshot) [][]rune {
	grid := make([][]rune, len(s.Terrain))
	for y, row := range s.Terrain {
		grid[y] = []rune(row)
	}

	put := func(x, y int, r rune) {
		if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) {
			grid[y][x] = r
		}
	}
	for _, spell := range s.Spells {
		put(spell.X, spell.Y, SpellRune)
	}
	for _, entity := range s.Entities {
		for _, r := range entity.Symbol {
			put(entity.X, entity.Y, r)
			break
		}
	}
	return grid
}

// Legend строки счёта под картой
func Legend(s game.Snapshot) []string {
	lines := []string{fmt.Sprintf("Арена %d  статус: %s  до победы: %d", s.ArenaNumber, s.Status, s.WinnerPoints)}

	health := make(map[uint64]game.EntitySnapshot, len(s.Entities))
	for _, entity := range s.Entities {
		health[entity.ID] = entity
	}

	for _, player := range s.Players {
		line := fmt.Sprintf("%s  %3d (+%d)", player.Symbol, player.TotalPoints, player.PartialPoints)
		switch entity, ok := health[player.EntityID]; {
		case player.Dead:
			line += "  выбыл"
		case ok:
			line += fmt.Sprintf("  ♥%d/%d", entity.Health, entity.MaxHealth)
		}
		lines = append(lines, line)
	}
	return lines
}

// ColumnWidth ширина колонки карты в ячейках терминала: широкие символы
// занимают две ячейки, и вся карта выравнивается по самому широкому
func ColumnWidth(grid [][]rune) int {
	width := 1
	for _, row := range grid {
		for _, r := range row {
			if w := runewidth.RuneWidth(r); w > width {
				width = w
			}
		}
	}
	return width
}
