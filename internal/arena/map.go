package arena

import (
	"fmt"

	"github.com/annel0/arena-game/internal/vec"
)

// MinMapSize минимальный размер стороны арены
const MinMapSize = 5

// Terrain тип клетки арены
type Terrain uint8

const (
	Floor Terrain = iota // Проходимый пол
	Wall                 // Непроходимая стена
)

// String возвращает строковое представление клетки
func (t Terrain) String() string {
	switch t {
	case Floor:
		return "floor"
	case Wall:
		return "wall"
	default:
		return "unknown"
	}
}

// Map статическая геометрия арены: квадрат size x size, стены по периметру,
// и стартовые позиции игроков
type Map struct {
	size   int
	ground []Terrain
	spawns []vec.Vec2
}

// NewMap строит карту и раскладывает стартовые позиции для playerCount игроков.
// Размер и число игроков проверяются при создании игры.
func NewMap(size, playerCount int) *Map {
	if size < MinMapSize {
		panic(fmt.Sprintf("map size %d is lower than minimum %d", size, MinMapSize))
	}
	if playerCount < 0 || playerCount > SpawnCapacity(size) {
		panic(fmt.Sprintf("map of size %d can not spawn %d players (capacity %d)", size, playerCount, SpawnCapacity(size)))
	}

	ground := make([]Terrain, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x == 0 || y == 0 || x == size-1 || y == size-1 {
				ground[y*size+x] = Wall
			}
		}
	}

	ring := spawnRing(size)
	spawns := make([]vec.Vec2, playerCount)
	for i := range spawns {
		// Равномерно по кольцу; при playerCount <= len(ring) индексы строго возрастают
		spawns[i] = ring[i*len(ring)/playerCount]
	}

	return &Map{size: size, ground: ground, spawns: spawns}
}

// SpawnCapacity возвращает максимальное число игроков для карты размера size
func SpawnCapacity(size int) int {
	if size < MinMapSize {
		return 0
	}
	return 4 * ringSide(size)
}

func ringInset(size int) int {
	inset := size / 4
	if inset < 1 {
		inset = 1
	}
	return inset
}

func ringSide(size int) int {
	return size - 1 - 2*ringInset(size)
}

// spawnRing перечисляет клетки квадратного кольца по часовой стрелке,
// начиная с левого верхнего угла
func spawnRing(size int) []vec.Vec2 {
	k := ringInset(size)
	side := ringSide(size)
	ring := make([]vec.Vec2, 0, 4*side)

	for i := 0; i < side; i++ {
		ring = append(ring, vec.Vec2{X: k + i, Y: k})
	}
	for i := 0; i < side; i++ {
		ring = append(ring, vec.Vec2{X: k + side, Y: k + i})
	}
	for i := 0; i < side; i++ {
		ring = append(ring, vec.Vec2{X: k + side - i, Y: k + side})
	}
	for i := 0; i < side; i++ {
		ring = append(ring, vec.Vec2{X: k, Y: k + side - i})
	}
	return ring
}

func (m *Map) Size() int {
	return m.size
}

// Contains проверяет, что позиция лежит внутри карты
func (m *Map) Contains(position vec.Vec2) bool {
	return position.X >= 0 && position.X < m.size && position.Y >= 0 && position.Y < m.size
}

// Terrain возвращает тип клетки. Запрос вне карты - ошибка программиста.
func (m *Map) Terrain(position vec.Vec2) Terrain {
	if !m.Contains(position) {
		panic(fmt.Sprintf("terrain position %+v out of map of size %d", position, m.size))
	}
	return m.ground[position.Y*m.size+position.X]
}

// IsWalkable сообщает, можно ли встать в клетку
func (m *Map) IsWalkable(position vec.Vec2) bool {
	return m.Contains(position) && m.Terrain(position) == Floor
}

// InitialPosition возвращает стартовую позицию слота index
func (m *Map) InitialPosition(index int) vec.Vec2 {
	if index < 0 || index >= len(m.spawns) {
		panic(fmt.Sprintf("spawn index %d out of range [0, %d)", index, len(m.spawns)))
	}
	return m.spawns[index]
}

// SpawnCount возвращает количество стартовых позиций
func (m *Map) SpawnCount() int {
	return len(m.spawns)
}

// Ground возвращает копию сетки клеток построчно
func (m *Map) Ground() []Terrain {
	return append([]Terrain(nil), m.ground...)
}
