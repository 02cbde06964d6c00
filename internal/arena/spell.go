package arena

import (
	"sync"
	"time"

	"github.com/annel0/arena-game/internal/vec"
)

// Spell активное заклинание на арене
type Spell struct {
	ID        SpellID
	Skill     SkillID
	Caster    EntityID
	Position  vec.Vec2
	Direction vec.Direction
	CreatedAt time.Time
}

// CastContext передаётся реализации умения при его применении
type CastContext struct {
	Arena     *Arena
	Caster    *Entity
	Direction vec.Direction
	Skill     SkillID
	Now       time.Time
}

// Target возвращает клетку перед заклинателем в направлении применения
func (c *CastContext) Target() vec.Vec2 {
	return c.Caster.Position().Add(c.Direction.Vec2())
}

// SpawnSpell создаёт заклинание от имени заклинателя
func (c *CastContext) SpawnSpell(position vec.Vec2) *Spell {
	return c.Arena.CreateSpell(c.Skill, c.Caster.ID(), position, c.Direction)
}

// SkillFunc реализация умения. Может изменять арену: вызывается на этапе
// применения действий, после того как все решения тика уже приняты.
type SkillFunc func(ctx *CastContext)

var (
	skillsMu sync.RWMutex
	skills   = make(map[SkillID]SkillFunc)
)

// RegisterSkill добавляет умение в регистр
func RegisterSkill(id SkillID, fn SkillFunc) {
	skillsMu.Lock()
	defer skillsMu.Unlock()
	skills[id] = fn
}

// GetSkill возвращает реализацию умения
func GetSkill(id SkillID) (SkillFunc, bool) {
	skillsMu.RLock()
	defer skillsMu.RUnlock()
	fn, exists := skills[id]
	return fn, exists
}
