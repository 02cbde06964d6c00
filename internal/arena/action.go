package arena

import (
	"fmt"

	"github.com/annel0/arena-game/internal/vec"
)

// EntityID уникальный в пределах арены идентификатор сущности
type EntityID uint64

// SpellID уникальный в пределах арены идентификатор заклинания
type SpellID uint64

// SkillID идентификатор умения
type SkillID uint16

// ActionKind тип действия сущности
type ActionKind uint8

const (
	ActionWalk    ActionKind = iota // Сменить направление и попытаться сделать шаг
	ActionCast                      // Применить умение в направлении
	ActionDestroy                   // Удалить сущность из арены
)

// String возвращает строковое представление типа действия
func (k ActionKind) String() string {
	switch k {
	case ActionWalk:
		return "walk"
	case ActionCast:
		return "cast"
	case ActionDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// EntityAction действие, запрошенное поведением или вводом игрока.
// Все изменения мира проходят через действия и применяются ареной.
type EntityAction struct {
	Kind      ActionKind
	Direction vec.Direction // Для Walk и Cast
	Skill     SkillID       // Только для Cast
}

// Walk создаёт действие смены направления с шагом
func Walk(direction vec.Direction) EntityAction {
	return EntityAction{Kind: ActionWalk, Direction: direction}
}

// Cast создаёт действие применения умения
func Cast(direction vec.Direction, skill SkillID) EntityAction {
	return EntityAction{Kind: ActionCast, Direction: direction, Skill: skill}
}

// Destroy создаёт действие самоуничтожения
func Destroy() EntityAction {
	return EntityAction{Kind: ActionDestroy}
}

func (a EntityAction) String() string {
	switch a.Kind {
	case ActionWalk:
		return fmt.Sprintf("walk(%s)", a.Direction)
	case ActionCast:
		return fmt.Sprintf("cast(%s, %d)", a.Direction, a.Skill)
	default:
		return a.Kind.String()
	}
}
