package game

import (
	"github.com/annel0/arena-game/internal/arena"
)

// Snapshot копия состояния игры для отрисовки и отправки клиентам.
// Не содержит ссылок на живые объекты симуляции.
type Snapshot struct {
	ArenaNumber  int              `json:"arena_number"`
	Status       string           `json:"status"`
	MapSize      int              `json:"map_size"`
	WinnerPoints int              `json:"winner_points"`
	Terrain      []string         `json:"terrain,omitempty"` // Строки карты: '#' - стена, '.' - пол
	Entities     []EntitySnapshot `json:"entities,omitempty"`
	Spells       []SpellSnapshot  `json:"spells,omitempty"`
	Players      []PlayerSnapshot `json:"players"`
}

// EntitySnapshot состояние одной сущности
type EntitySnapshot struct {
	ID        uint64 `json:"id"`
	Symbol    string `json:"symbol"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"max_health"`
	Energy    int    `json:"energy"`
	MaxEnergy int    `json:"max_energy"`
}

// SpellSnapshot состояние заклинания
type SpellSnapshot struct {
	ID        uint64 `json:"id"`
	Skill     uint16 `json:"skill"`
	Caster    uint64 `json:"caster"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
}

// PlayerSnapshot счёт и состояние игрока
type PlayerSnapshot struct {
	Index         int    `json:"index"`
	Symbol        string `json:"symbol"`
	EntityID      uint64 `json:"entity_id,omitempty"`
	PartialPoints int    `json:"partial_points"`
	TotalPoints   int    `json:"total_points"`
	Dead          bool   `json:"dead"`
}

// TerrainRune возвращает символ клетки в строках Snapshot.Terrain
func TerrainRune(t arena.Terrain) rune {
	if t == arena.Wall {
		return '#'
	}
	return '.'
}

// Snapshot снимает копию состояния игры
func (g *Game) Snapshot() Snapshot {
	snapshot := Snapshot{
		ArenaNumber:  g.arenaNumber,
		Status:       g.Status().String(),
		MapSize:      g.mapSize,
		WinnerPoints: g.winnerPoints,
		Players:      make([]PlayerSnapshot, 0, len(g.roster)),
	}

	for _, player := range g.roster {
		snapshot.Players = append(snapshot.Players, PlayerSnapshot{
			Index:         player.Index(),
			Symbol:        string(player.Symbol()),
			EntityID:      uint64(player.EntityID()),
			PartialPoints: player.PartialPoints(),
			TotalPoints:   player.TotalPoints(),
			Dead:          player.IsDead(),
		})
	}

	if g.arena == nil {
		return snapshot
	}

	size := g.arena.Size()
	ground := g.arena.Map().Ground()
	snapshot.Terrain = make([]string, size)
	for y := 0; y < size; y++ {
		row := make([]rune, size)
		for x := 0; x < size; x++ {
			row[x] = TerrainRune(ground[y*size+x])
		}
		snapshot.Terrain[y] = string(row)
	}

	for _, entity := range g.arena.Entities() {
		c := entity.Character()
		snapshot.Entities = append(snapshot.Entities, EntitySnapshot{
			ID:        uint64(entity.ID()),
			Symbol:    string(c.Symbol()),
			X:         entity.Position().X,
			Y:         entity.Position().Y,
			Direction: entity.Direction().String(),
			Health:    entity.Health(),
			MaxHealth: c.MaxHealth(),
			Energy:    entity.Energy(),
			MaxEnergy: c.MaxEnergy(),
		})
	}

	for _, spell := range g.arena.Spells() {
		snapshot.Spells = append(snapshot.Spells, SpellSnapshot{
			ID:        uint64(spell.ID),
			Skill:     uint16(spell.Skill),
			Caster:    uint64(spell.Caster),
			X:         spell.Position.X,
			Y:         spell.Position.Y,
			Direction: spell.Direction.String(),
		})
	}

	return snapshot
}
