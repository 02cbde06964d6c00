package arena

import (
	"testing"
	"time"

	"github.com/annel0/arena-game/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBehaviourRegistry(t *testing.T) {
	b, err := NewBehaviour("")
	require.NoError(t, err)
	assert.IsType(t, Idle{}, b, "пустое имя - поведение по умолчанию")

	_, err = NewBehaviour("dragon")
	assert.ErrorIs(t, err, ErrUnknownBehaviour)
	assert.False(t, HasBehaviour("dragon"))

	RegisterBehaviour("test-sleeper", func() Behaviour { return &scripted{} })
	assert.True(t, HasBehaviour("test-sleeper"))
	assert.Contains(t, BehaviourNames(), "chaser")

	first, err := NewBehaviour("chaser")
	require.NoError(t, err)
	second, err := NewBehaviour("chaser")
	require.NoError(t, err)
	assert.NotSame(t, first, second, "каждая сущность получает свой экземпляр")
}

func TestIdle_NoActions(t *testing.T) {
	assert.Empty(t, Idle{}.Update(t0, EntityState{}, nil, EntityView{}))
	assert.Empty(t, Idle{}.Destroyed())
}

func TestChaser(t *testing.T) {
	a := testArena(12, 3)
	hunter := a.CreateEntity(testCharacter(t, 'H', "chaser"), pos(2, 2))
	near := a.CreateEntity(testCharacter(t, 'N', ""), pos(2, 6))
	far := a.CreateEntity(testCharacter(t, 'F', ""), pos(9, 9))

	chaser := hunter.Behaviour().(*Chaser)
	view := a.freeze()

	t.Run("идёт к ближайшей цели", func(t *testing.T) {
		actions := chaser.Update(t0, hunter.State(), a.Map(), view)
		assert.Equal(t, []EntityAction{Walk(vec.Down)}, actions)
		assert.Equal(t, near.ID(), chaser.Target())
	})

	t.Run("атакует соседа", func(t *testing.T) {
		near.SetPosition(pos(3, 2))
		actions := chaser.Update(t0, hunter.State(), a.Map(), a.freeze())
		assert.Equal(t, []EntityAction{Cast(vec.Right, StrikeSkill)}, actions)
	})

	t.Run("игнорирует мёртвых", func(t *testing.T) {
		near.SetHealth(0)
		actions := chaser.Update(t0, hunter.State(), a.Map(), a.freeze())
		assert.Equal(t, far.ID(), chaser.Target())
		assert.Equal(t, []EntityAction{Walk(vec.Right)}, actions, "при равенстве осей выбирается X")
	})

	t.Run("в одной клетке уступает меньший ID", func(t *testing.T) {
		other := NewChaser(StrikeSkill)
		far.SetHealth(100)
		far.SetPosition(hunter.Position())
		view := a.freeze()

		assert.Empty(t, chaser.Update(t0, hunter.State(), a.Map(), view))
		assert.Equal(t, []EntityAction{Walk(vec.Down)}, other.Update(t0, far.State(), a.Map(), view))
	})

	t.Run("по диагонали ходит только больший ID", func(t *testing.T) {
		other := NewChaser(StrikeSkill)
		far.SetPosition(pos(3, 3))
		view := a.freeze()

		assert.Empty(t, chaser.Update(t0, hunter.State(), a.Map(), view))
		assert.Equal(t, []EntityAction{Walk(vec.Left)}, other.Update(t0, far.State(), a.Map(), view))
	})

	t.Run("мёртвый преследователь удаляет себя", func(t *testing.T) {
		hunter.SetHealth(0)
		report := a.UpdateAt(t0.Add(time.Second))
		assert.Contains(t, report.Destroyed, hunter.ID())
	})
}
