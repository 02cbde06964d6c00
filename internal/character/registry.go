package character

import (
	"fmt"
	"sort"
)

// Registry каталог персонажей сессии. Заполняется один раз при создании игры,
// после чего используется только для чтения.
type Registry struct {
	byID     map[ID]*Character
	bySymbol map[rune]*Character
}

// NewRegistry создаёт пустой каталог
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[ID]*Character),
		bySymbol: make(map[rune]*Character),
	}
}

// Add добавляет персонажа в каталог
func (r *Registry) Add(c *Character) error {
	if _, exists := r.byID[c.ID()]; exists {
		return fmt.Errorf("%w: duplicate character id %d", ErrInvalidCharacter, c.ID())
	}
	if _, exists := r.bySymbol[c.Symbol()]; exists {
		return fmt.Errorf("%w: duplicate character symbol '%c'", ErrInvalidCharacter, c.Symbol())
	}
	r.byID[c.ID()] = c
	r.bySymbol[c.Symbol()] = c
	return nil
}

// Get возвращает персонажа по ID
func (r *Registry) Get(id ID) (*Character, bool) {
	c, exists := r.byID[id]
	return c, exists
}

// BySymbol возвращает персонажа по символу
func (r *Registry) BySymbol(symbol rune) (*Character, bool) {
	c, exists := r.bySymbol[symbol]
	return c, exists
}

// All возвращает всех персонажей в порядке ID
func (r *Registry) All() []*Character {
	result := make([]*Character, 0, len(r.byID))
	for _, c := range r.byID {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Len возвращает количество персонажей
func (r *Registry) Len() int {
	return len(r.byID)
}
