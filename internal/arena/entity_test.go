package arena

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/annel0/arena-game/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestNewEntity_Defaults(t *testing.T) {
	c := testCharacter(t, 'A', "")
	e := NewEntity(7, c, pos(3, 4), t0)

	assert.Equal(t, EntityID(7), e.ID())
	assert.Same(t, c, e.Character())
	assert.Equal(t, 100, e.Health())
	assert.Equal(t, 50, e.Energy())
	assert.Equal(t, vec.Down, e.Direction(), "по умолчанию сущность смотрит вниз")
	assert.Equal(t, 2.0, e.Speed())
	assert.Equal(t, t0, e.NextWalkTime(), "первый шаг разрешён без задержки")
	assert.IsType(t, Idle{}, e.Behaviour())
	assert.True(t, e.IsAlive())
	assert.False(t, e.IsDestroyed())
}

func TestNewEntity_UnknownBehaviourPanics(t *testing.T) {
	c := testCharacter(t, 'X', "no-such-behaviour")
	assert.Panics(t, func() { NewEntity(1, c, pos(1, 1), t0) })
}

func TestEntity_HealthEnergyClamped(t *testing.T) {
	e := NewEntity(1, testCharacter(t, 'A', ""), pos(1, 1), t0)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		switch rng.Intn(4) {
		case 0:
			e.AddHealth(rng.Intn(400) - 200)
		case 1:
			e.SetHealth(rng.Intn(400) - 200)
		case 2:
			e.AddEnergy(rng.Intn(400) - 200)
		case 3:
			e.SetEnergy(rng.Intn(400) - 200)
		}
		assert.GreaterOrEqual(t, e.Health(), 0)
		assert.LessOrEqual(t, e.Health(), 100)
		assert.GreaterOrEqual(t, e.Energy(), 0)
		assert.LessOrEqual(t, e.Energy(), 50)
	}
}

func TestEntity_AddSaturates(t *testing.T) {
	e := NewEntity(1, testCharacter(t, 'A', ""), pos(1, 1), t0)

	e.AddHealth(math.MaxInt)
	assert.Equal(t, 100, e.Health(), "переполнение должно насыщаться до максимума")

	e.AddHealth(math.MinInt)
	assert.Equal(t, 0, e.Health(), "уход в минус должен насыщаться до нуля")
	assert.False(t, e.IsAlive())

	e.AddHealth(30)
	assert.Equal(t, 30, e.Health())

	e.SetEnergy(10)
	e.AddEnergy(-11)
	assert.Equal(t, 0, e.Energy())
	e.AddEnergy(math.MaxInt)
	assert.Equal(t, 50, e.Energy())
}

func TestEntity_WalkCadence(t *testing.T) {
	e := NewEntity(1, testCharacter(t, 'A', ""), pos(2, 2), t0)
	e.SetDirection(vec.Right)

	assert.False(t, e.Walk(t0), "шаг в момент создания не разрешён")

	now := t0.Add(10 * time.Millisecond)
	assert.True(t, e.Walk(now))
	assert.Equal(t, pos(3, 2), e.Position())
	assert.Equal(t, now.Add(500*time.Millisecond), e.NextWalkTime(), "скорость 2 шага/с даёт паузу 0.5с")

	assert.False(t, e.Walk(now), "повторный вызов с тем же временем не двигает")
	assert.False(t, e.Walk(now.Add(500*time.Millisecond)), "граница не включается")
	assert.Equal(t, pos(3, 2), e.Position())

	assert.True(t, e.Walk(now.Add(501*time.Millisecond)))
	assert.Equal(t, pos(4, 2), e.Position())
}

func TestEntity_SetBehaviourKeepsState(t *testing.T) {
	e := NewEntity(1, testCharacter(t, 'A', ""), pos(2, 2), t0)
	e.AddHealth(-40)
	e.SetDirection(vec.Left)

	b := &scripted{}
	e.SetBehaviour(b)

	assert.Same(t, b, e.Behaviour())
	assert.Equal(t, 60, e.Health())
	assert.Equal(t, vec.Left, e.Direction())
	assert.Equal(t, pos(2, 2), e.Position())
}

func TestEntity_StateIsCopy(t *testing.T) {
	e := NewEntity(1, testCharacter(t, 'A', ""), pos(2, 2), t0)
	state := e.State()

	e.Displace(vec.Vec2{X: 1, Y: 1})
	e.SetHealth(1)

	assert.Equal(t, pos(2, 2), state.Position)
	assert.Equal(t, 100, state.Health)
	assert.Equal(t, pos(3, 3), e.Position())
}
