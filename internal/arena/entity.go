package arena

import (
	"fmt"
	"time"

	"github.com/annel0/arena-game/internal/character"
	"github.com/annel0/arena-game/internal/vec"
)

// Entity представляет сущность на арене: позиция, здоровье, энергия и поведение.
// Здоровье и энергия всегда лежат в диапазоне [0, максимум персонажа].
type Entity struct {
	id           EntityID
	character    *character.Character
	behaviour    Behaviour
	direction    vec.Direction
	position     vec.Vec2
	health       int
	energy       int
	speed        float64 // Шагов в секунду
	nextWalkTime time.Time
	destroyed    bool
}

// NewEntity создаёт сущность с полным здоровьем и энергией.
// Имя поведения персонажа должно быть зарегистрировано: проверка выполняется
// при создании игры, поэтому здесь неизвестное имя - ошибка программиста.
func NewEntity(id EntityID, c *character.Character, position vec.Vec2, now time.Time) *Entity {
	behaviour, err := NewBehaviour(c.BehaviourName())
	if err != nil {
		panic(fmt.Sprintf("entity %d ('%c'): %v", id, c.Symbol(), err))
	}

	return &Entity{
		id:           id,
		character:    c,
		behaviour:    behaviour,
		direction:    vec.Down,
		position:     position,
		health:       c.MaxHealth(),
		energy:       c.MaxEnergy(),
		speed:        c.SpeedBase(),
		nextWalkTime: now,
	}
}

func (e *Entity) ID() EntityID {
	return e.id
}

func (e *Entity) Character() *character.Character {
	return e.character
}

// Behaviour возвращает текущее поведение
func (e *Entity) Behaviour() Behaviour {
	return e.behaviour
}

// SetBehaviour заменяет поведение, не трогая остальное состояние
func (e *Entity) SetBehaviour(behaviour Behaviour) {
	e.behaviour = behaviour
}

func (e *Entity) Direction() vec.Direction {
	return e.direction
}

func (e *Entity) SetDirection(direction vec.Direction) {
	e.direction = direction
}

func (e *Entity) Position() vec.Vec2 {
	return e.position
}

func (e *Entity) SetPosition(position vec.Vec2) {
	e.position = position
}

// Displace сдвигает сущность на вектор
func (e *Entity) Displace(displacement vec.Vec2) {
	e.position = e.position.Add(displacement)
}

func (e *Entity) Health() int {
	return e.health
}

func (e *Entity) Energy() int {
	return e.energy
}

func (e *Entity) Speed() float64 {
	return e.speed
}

// SetSpeed задаёт скорость; неположительные значения игнорируются
func (e *Entity) SetSpeed(speed float64) {
	if speed > 0 {
		e.speed = speed
	}
}

// NextWalkTime возвращает момент, после которого разрешён следующий шаг
func (e *Entity) NextWalkTime() time.Time {
	return e.nextWalkTime
}

func (e *Entity) IsAlive() bool {
	return e.health > 0
}

// IsDestroyed сообщает, что сущность удалена из арены
func (e *Entity) IsDestroyed() bool {
	return e.destroyed
}

// SetHealth устанавливает здоровье с ограничением в [0, MaxHealth]
func (e *Entity) SetHealth(health int) {
	e.health = clamp(health, e.character.MaxHealth())
}

// SetEnergy устанавливает энергию с ограничением в [0, MaxEnergy]
func (e *Entity) SetEnergy(energy int) {
	e.energy = clamp(energy, e.character.MaxEnergy())
}

// AddHealth изменяет здоровье на delta с насыщением
func (e *Entity) AddHealth(delta int) {
	e.health = saturatingAdd(e.health, delta, e.character.MaxHealth())
}

// AddEnergy изменяет энергию на delta с насыщением
func (e *Entity) AddEnergy(delta int) {
	e.energy = saturatingAdd(e.energy, delta, e.character.MaxEnergy())
}

// Walk делает шаг в текущем направлении, если наступило время следующего шага.
// Следующий шаг разрешается через 1/speed секунд. Возвращает true, если шаг сделан.
func (e *Entity) Walk(now time.Time) bool {
	if !now.After(e.nextWalkTime) {
		return false
	}
	e.position = e.position.Add(e.direction.Vec2())
	e.nextWalkTime = now.Add(time.Duration(float64(time.Second) / e.speed))
	return true
}

// State возвращает копию состояния сущности для снимка мира
func (e *Entity) State() EntityState {
	return EntityState{
		ID:        e.id,
		Character: e.character,
		Direction: e.direction,
		Position:  e.position,
		Health:    e.health,
		Energy:    e.energy,
		Speed:     e.speed,
	}
}

// EntityState копия состояния сущности, которую видят поведения
type EntityState struct {
	ID        EntityID
	Character *character.Character
	Direction vec.Direction
	Position  vec.Vec2
	Health    int
	Energy    int
	Speed     float64
}

func (s EntityState) IsAlive() bool {
	return s.Health > 0
}

func clamp(value, limit int) int {
	if value < 0 {
		return 0
	}
	if value > limit {
		return limit
	}
	return value
}

// saturatingAdd складывает current (уже в [0, limit]) и delta без переполнения
func saturatingAdd(current, delta, limit int) int {
	if delta >= 0 {
		if delta > limit-current {
			return limit
		}
		return current + delta
	}
	if delta < -current {
		return 0
	}
	return current + delta
}
