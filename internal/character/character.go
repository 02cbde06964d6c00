package character

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCharacter возвращается билдером при некорректных параметрах персонажа
var ErrInvalidCharacter = errors.New("invalid character")

// ID идентификатор персонажа внутри игровой сессии
type ID uint32

// Character неизменяемое описание персонажа: идентичность и базовые характеристики.
// Один экземпляр разделяется всеми сущностями и игроками сессии.
type Character struct {
	id            ID
	symbol        rune
	behaviourName string
	maxHealth     int
	maxEnergy     int
	speedBase     float64
}

// ID возвращает идентификатор персонажа
func (c *Character) ID() ID {
	return c.id
}

// Symbol возвращает символ, которым персонаж отображается на арене
func (c *Character) Symbol() rune {
	return c.symbol
}

// BehaviourName возвращает имя поведения ("" - поведение по умолчанию)
func (c *Character) BehaviourName() string {
	return c.behaviourName
}

func (c *Character) MaxHealth() int {
	return c.maxHealth
}

func (c *Character) MaxEnergy() int {
	return c.maxEnergy
}

// SpeedBase возвращает базовую скорость в шагах в секунду
func (c *Character) SpeedBase() float64 {
	return c.speedBase
}

// String возвращает символ персонажа
func (c *Character) String() string {
	return string(c.symbol)
}

// Builder собирает Character с проверкой параметров
type Builder struct {
	id            ID
	symbol        rune
	behaviourName string
	maxHealth     int
	maxEnergy     int
	speedBase     float64
}

// NewBuilder создаёт пустой билдер
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) ID(id ID) *Builder {
	b.id = id
	return b
}

func (b *Builder) Symbol(symbol rune) *Builder {
	b.symbol = symbol
	return b
}

func (b *Builder) BehaviourName(name string) *Builder {
	b.behaviourName = name
	return b
}

func (b *Builder) MaxHealth(v int) *Builder {
	b.maxHealth = v
	return b
}

func (b *Builder) MaxEnergy(v int) *Builder {
	b.maxEnergy = v
	return b
}

func (b *Builder) SpeedBase(v float64) *Builder {
	b.speedBase = v
	return b
}

// Build проверяет параметры и возвращает готовый персонаж
func (b *Builder) Build() (*Character, error) {
	if b.symbol == 0 {
		return nil, fmt.Errorf("%w: symbol is not set", ErrInvalidCharacter)
	}
	if b.maxHealth <= 0 {
		return nil, fmt.Errorf("%w: max health of '%c' must be positive, got %d", ErrInvalidCharacter, b.symbol, b.maxHealth)
	}
	if b.maxEnergy < 0 {
		return nil, fmt.Errorf("%w: max energy of '%c' must not be negative, got %d", ErrInvalidCharacter, b.symbol, b.maxEnergy)
	}
	if b.speedBase <= 0 || math.IsInf(b.speedBase, 0) || math.IsNaN(b.speedBase) {
		return nil, fmt.Errorf("%w: speed of '%c' must be a positive number, got %v", ErrInvalidCharacter, b.symbol, b.speedBase)
	}

	return &Character{
		id:            b.id,
		symbol:        b.symbol,
		behaviourName: b.behaviourName,
		maxHealth:     b.maxHealth,
		maxEnergy:     b.maxEnergy,
		speedBase:     b.speedBase,
	}, nil
}
