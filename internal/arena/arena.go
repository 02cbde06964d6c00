package arena

import (
	"fmt"
	"sort"
	"time"

	"github.com/annel0/arena-game/internal/character"
	"github.com/annel0/arena-game/internal/logging"
	"github.com/annel0/arena-game/internal/vec"
)

// Arena живой мир одного раунда: карта, сущности и заклинания.
// Арена однопоточная: все вызовы должны выполняться из одной горутины драйвера.
type Arena struct {
	gameMap      *Map
	entities     map[EntityID]*Entity
	spells       map[SpellID]*Spell
	nextEntityID EntityID
	nextSpellID  SpellID
	pending      []pendingAction
	clock        func() time.Time
	logger       *logging.Logger
}

type pendingAction struct {
	id     EntityID
	action EntityAction
}

// UpdateReport итог одного тика арены
type UpdateReport struct {
	Moved     []EntityID
	Cast      []EntityID
	Destroyed []EntityID
}

// Option настраивает арену
type Option func(*Arena)

// WithClock задаёт источник времени для Update
func WithClock(clock func() time.Time) Option {
	return func(a *Arena) {
		a.clock = clock
	}
}

// WithLogger задаёт логгер арены
func WithLogger(logger *logging.Logger) Option {
	return func(a *Arena) {
		a.logger = logger
	}
}

// New создаёт арену размера mapSize для playerCount игроков
func New(mapSize, playerCount int, opts ...Option) *Arena {
	a := &Arena{
		gameMap:      NewMap(mapSize, playerCount),
		entities:     make(map[EntityID]*Entity),
		spells:       make(map[SpellID]*Spell),
		nextEntityID: 1,
		nextSpellID:  1,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.GetArenaLogger()
	}
	return a
}

func (a *Arena) Map() *Map {
	return a.gameMap
}

func (a *Arena) Size() int {
	return a.gameMap.Size()
}

// Terrain возвращает тип клетки; позиция обязана лежать внутри карты
func (a *Arena) Terrain(position vec.Vec2) Terrain {
	return a.gameMap.Terrain(position)
}

// Now возвращает текущее время по часам арены
func (a *Arena) Now() time.Time {
	return a.clock()
}

// CreateEntity создаёт сущность с новым уникальным ID
func (a *Arena) CreateEntity(c *character.Character, position vec.Vec2) *Entity {
	if !a.gameMap.Contains(position) {
		panic(fmt.Sprintf("entity position %+v out of map of size %d", position, a.gameMap.Size()))
	}

	id := a.nextEntityID
	a.nextEntityID++

	entity := NewEntity(id, c, position, a.clock())
	a.entities[id] = entity
	a.logger.Trace("Entity %d ('%c') created at (%d,%d)", id, c.Symbol(), position.X, position.Y)
	return entity
}

// Entity возвращает сущность по ID
func (a *Arena) Entity(id EntityID) (*Entity, bool) {
	entity, exists := a.entities[id]
	return entity, exists
}

// Entities возвращает все сущности в порядке ID
func (a *Arena) Entities() []*Entity {
	result := make([]*Entity, 0, len(a.entities))
	for _, entity := range a.entities {
		result = append(result, entity)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}

func (a *Arena) EntityCount() int {
	return len(a.entities)
}

// CreateSpell создаёт заклинание с новым уникальным ID
func (a *Arena) CreateSpell(skill SkillID, caster EntityID, position vec.Vec2, direction vec.Direction) *Spell {
	id := a.nextSpellID
	a.nextSpellID++

	spell := &Spell{
		ID:        id,
		Skill:     skill,
		Caster:    caster,
		Position:  position,
		Direction: direction,
		CreatedAt: a.clock(),
	}
	a.spells[id] = spell
	return spell
}

// Spell возвращает заклинание по ID
func (a *Arena) Spell(id SpellID) (*Spell, bool) {
	spell, exists := a.spells[id]
	return spell, exists
}

// RemoveSpell удаляет заклинание
func (a *Arena) RemoveSpell(id SpellID) bool {
	if _, exists := a.spells[id]; !exists {
		return false
	}
	delete(a.spells, id)
	return true
}

// Spells возвращает все заклинания в порядке ID
func (a *Arena) Spells() []*Spell {
	result := make([]*Spell, 0, len(a.spells))
	for _, spell := range a.spells {
		result = append(result, spell)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Enqueue ставит внешнее действие (ввод игрока) в очередь.
// Очередь применяется в начале следующего Update, до решений поведений.
func (a *Arena) Enqueue(id EntityID, action EntityAction) bool {
	if _, exists := a.entities[id]; !exists {
		return false
	}
	a.pending = append(a.pending, pendingAction{id: id, action: action})
	return true
}

// Update выполняет один тик по часам арены
func (a *Arena) Update() UpdateReport {
	return a.UpdateAt(a.clock())
}

// UpdateAt выполняет один тик на момент now.
//
// Порядок: внешние действия из очереди; снимок всех сущностей; решения поведений
// по снимку в порядке ID; применение действий в том же порядке. Удалённые в ходе
// тика сущности больше не посещаются, убитые выполняют только Destroy.
func (a *Arena) UpdateAt(now time.Time) UpdateReport {
	var report UpdateReport

	pending := a.pending
	a.pending = nil
	for _, p := range pending {
		if entity, exists := a.entities[p.id]; exists {
			a.apply(now, entity, p.action, &report)
		}
	}

	view := a.freeze()

	type decision struct {
		id      EntityID
		actions []EntityAction
	}
	decisions := make([]decision, 0, view.Len())
	for _, state := range view.states {
		entity, exists := a.entities[state.ID]
		if !exists {
			continue
		}
		actions := entity.behaviour.Update(now, state, a.gameMap, view)
		if len(actions) > 0 {
			decisions = append(decisions, decision{id: state.ID, actions: actions})
		}
	}

	for _, d := range decisions {
		for _, action := range d.actions {
			entity, exists := a.entities[d.id]
			if !exists {
				break
			}
			// Убитая раньше в этом тике сущность уже не ходит и не колдует
			if !entity.IsAlive() && action.Kind != ActionDestroy {
				continue
			}
			a.apply(now, entity, action, &report)
		}
	}

	return report
}

// freeze снимает копию состояний всех сущностей в порядке ID
func (a *Arena) freeze() EntityView {
	states := make([]EntityState, 0, len(a.entities))
	for _, entity := range a.entities {
		states = append(states, entity.State())
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return newEntityView(states)
}

func (a *Arena) apply(now time.Time, entity *Entity, action EntityAction, report *UpdateReport) {
	switch action.Kind {
	case ActionWalk:
		entity.SetDirection(action.Direction)
		next := entity.Position().Add(action.Direction.Vec2())
		if a.gameMap.IsWalkable(next) && entity.Walk(now) {
			report.Moved = append(report.Moved, entity.id)
		}

	case ActionCast:
		entity.SetDirection(action.Direction)
		skill, exists := GetSkill(action.Skill)
		if !exists {
			a.logger.Warn("Entity %d cast unknown skill %d, ignored", entity.id, action.Skill)
			return
		}
		skill(&CastContext{
			Arena:     a,
			Caster:    entity,
			Direction: action.Direction,
			Skill:     action.Skill,
			Now:       now,
		})
		report.Cast = append(report.Cast, entity.id)

	case ActionDestroy:
		a.destroy(now, entity, report)

	default:
		a.logger.Warn("Entity %d requested unknown action %v", entity.id, action.Kind)
	}
}

// destroy вызывает Destroyed у поведения, применяет его действия в этом же
// проходе и удаляет сущность
func (a *Arena) destroy(now time.Time, entity *Entity, report *UpdateReport) {
	if entity.destroyed {
		return
	}
	entity.destroyed = true

	for _, action := range entity.behaviour.Destroyed() {
		if action.Kind == ActionDestroy {
			continue
		}
		a.apply(now, entity, action, report)
	}

	delete(a.entities, entity.id)
	report.Destroyed = append(report.Destroyed, entity.id)
	a.logger.Trace("Entity %d ('%c') destroyed", entity.id, entity.character.Symbol())
}
