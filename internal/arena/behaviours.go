package arena

import (
	"time"

	"github.com/annel0/arena-game/internal/vec"
)

// StrikeSkill умение ближней атаки, которое использует Chaser.
// Реализация регистрируется снаружи через RegisterSkill.
const StrikeSkill SkillID = 1

// Idle поведение по умолчанию: никаких действий
type Idle struct{}

func (Idle) Update(time.Time, EntityState, *Map, EntityView) []EntityAction {
	return nil
}

func (Idle) Destroyed() []EntityAction {
	return nil
}

// Chaser преследует ближайшую живую сущность и атакует её, оказавшись рядом.
// Мёртвый Chaser удаляет себя из арены.
type Chaser struct {
	skill  SkillID
	target EntityID
}

// NewChaser создаёт преследователя, атакующего умением skill
func NewChaser(skill SkillID) *Chaser {
	return &Chaser{skill: skill}
}

// Target возвращает ID текущей цели (0 - цели нет)
func (c *Chaser) Target() EntityID {
	return c.target
}

func (c *Chaser) Update(now time.Time, self EntityState, m *Map, entities EntityView) []EntityAction {
	if !self.IsAlive() {
		return []EntityAction{Destroy()}
	}

	target, ok := c.nearest(self, entities)
	if !ok {
		c.target = 0
		return nil
	}
	c.target = target.ID

	// Два преследователя ходят синхронно и могут зеркалить друг друга.
	// В одной клетке и по диагонали ходит только сущность с большим ID.
	delta := target.Position.Sub(self.Position)
	switch {
	case delta.X == 0 && delta.Y == 0:
		if self.ID < target.ID {
			return nil
		}
		return c.stepAside(self, m)
	case abs(delta.X)+abs(delta.Y) == 1:
		return []EntityAction{Cast(directionTo(delta), c.skill)}
	case abs(delta.X) == 1 && abs(delta.Y) == 1 && self.ID < target.ID:
		return nil
	default:
		return []EntityAction{Walk(directionTo(delta))}
	}
}

var asideOrder = [...]vec.Direction{vec.Down, vec.Up, vec.Left, vec.Right}

// stepAside уходит в первую проходимую соседнюю клетку
func (c *Chaser) stepAside(self EntityState, m *Map) []EntityAction {
	for _, dir := range asideOrder {
		if m.IsWalkable(self.Position.Add(dir.Vec2())) {
			return []EntityAction{Walk(dir)}
		}
	}
	return nil
}

func (c *Chaser) Destroyed() []EntityAction {
	c.target = 0
	return nil
}

// nearest ищет ближайшую живую сущность; при равенстве расстояний берётся меньший ID
func (c *Chaser) nearest(self EntityState, entities EntityView) (EntityState, bool) {
	var (
		best  EntityState
		found bool
	)
	for _, other := range entities.states {
		if other.ID == self.ID || !other.IsAlive() {
			continue
		}
		if !found || self.Position.ManhattanTo(other.Position) < self.Position.ManhattanTo(best.Position) {
			best = other
			found = true
		}
	}
	return best, found
}

// directionTo выбирает направление по доминирующей оси (при равенстве - по X)
func directionTo(delta vec.Vec2) vec.Direction {
	if abs(delta.X) >= abs(delta.Y) {
		if delta.X > 0 {
			return vec.Right
		}
		return vec.Left
	}
	if delta.Y > 0 {
		return vec.Down
	}
	return vec.Up
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
