package game

import (
	"github.com/annel0/arena-game/internal/arena"
	"github.com/annel0/arena-game/internal/character"
)

// Player участник сессии. Существует между раундами и накапливает очки.
type Player struct {
	index         int
	character     *character.Character
	entity        *arena.Entity
	partialPoints int
	totalPoints   int
}

// NewPlayer создаёт игрока с позицией index в составе
func NewPlayer(index int, c *character.Character) *Player {
	return &Player{index: index, character: c}
}

// Index возвращает позицию игрока в составе
func (p *Player) Index() int {
	return p.index
}

func (p *Player) Character() *character.Character {
	return p.character
}

func (p *Player) Symbol() rune {
	return p.character.Symbol()
}

// AttachEntity привязывает игрока к его сущности текущего раунда
func (p *Player) AttachEntity(entity *arena.Entity) {
	p.entity = entity
}

// DetachEntity отвязывает сущность по окончании раунда
func (p *Player) DetachEntity() {
	p.entity = nil
}

// Entity возвращает сущность текущего раунда или nil
func (p *Player) Entity() *arena.Entity {
	return p.entity
}

// EntityID возвращает ID сущности текущего раунда (0 - нет сущности)
func (p *Player) EntityID() arena.EntityID {
	if p.entity == nil {
		return 0
	}
	return p.entity.ID()
}

// ResetPartialPoints обнуляет очки раунда; общий счёт не меняется
func (p *Player) ResetPartialPoints() {
	p.partialPoints = 0
}

// UpdatePoints начисляет очки за место в раунде: points - число игроков,
// выбывших раньше. Отрицательные значения не уменьшают счёт.
func (p *Player) UpdatePoints(points int) {
	if points <= 0 {
		return
	}
	p.partialPoints += points
	p.totalPoints += points
}

func (p *Player) PartialPoints() int {
	return p.partialPoints
}

func (p *Player) TotalPoints() int {
	return p.totalPoints
}

// IsDead сообщает, что у игрока нет живой сущности
func (p *Player) IsDead() bool {
	return p.entity == nil || p.entity.IsDestroyed() || !p.entity.IsAlive()
}
