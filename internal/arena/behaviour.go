package arena

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrUnknownBehaviour возвращается при запросе незарегистрированного поведения
var ErrUnknownBehaviour = errors.New("unknown entity behaviour")

// Behaviour определяет поведение сущности.
// Update принимает решение по снимку мира на начало тика и не изменяет мир напрямую:
// все эффекты возвращаются списком действий, которые применяет арена.
type Behaviour interface {
	// Update вызывается каждый тик для каждой сущности арены
	Update(now time.Time, self EntityState, m *Map, entities EntityView) []EntityAction

	// Destroyed вызывается один раз при удалении сущности
	Destroyed() []EntityAction
}

// BehaviourFactory создаёт новый экземпляр поведения для сущности
type BehaviourFactory func() Behaviour

var (
	behavioursMu sync.RWMutex
	behaviours   = map[string]BehaviourFactory{
		"":       func() Behaviour { return Idle{} },
		"chaser": func() Behaviour { return NewChaser(StrikeSkill) },
	}
)

// RegisterBehaviour добавляет поведение в регистр
func RegisterBehaviour(name string, factory BehaviourFactory) {
	behavioursMu.Lock()
	defer behavioursMu.Unlock()
	behaviours[name] = factory
}

// HasBehaviour проверяет, зарегистрировано ли поведение с таким именем
func HasBehaviour(name string) bool {
	behavioursMu.RLock()
	defer behavioursMu.RUnlock()
	_, exists := behaviours[name]
	return exists
}

// NewBehaviour создаёт поведение по имени
func NewBehaviour(name string) (Behaviour, error) {
	behavioursMu.RLock()
	factory, exists := behaviours[name]
	behavioursMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBehaviour, name)
	}
	return factory(), nil
}

// BehaviourNames возвращает отсортированный список зарегистрированных поведений
func BehaviourNames() []string {
	behavioursMu.RLock()
	defer behavioursMu.RUnlock()

	names := make([]string, 0, len(behaviours))
	for name := range behaviours {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntityView неизменяемый снимок всех сущностей арены на начало тика
type EntityView struct {
	states []EntityState // Упорядочены по ID
	index  map[EntityID]int
}

func newEntityView(states []EntityState) EntityView {
	index := make(map[EntityID]int, len(states))
	for i, s := range states {
		index[s.ID] = i
	}
	return EntityView{states: states, index: index}
}

// Get возвращает состояние сущности по ID
func (v EntityView) Get(id EntityID) (EntityState, bool) {
	i, ok := v.index[id]
	if !ok {
		return EntityState{}, false
	}
	return v.states[i], true
}

// States возвращает копию состояний всех сущностей в порядке ID
func (v EntityView) States() []EntityState {
	return append([]EntityState(nil), v.states...)
}

// Len возвращает количество сущностей в снимке
func (v EntityView) Len() int {
	return len(v.states)
}
