package vec

import "math"

// Vec2 представляет 2D координаты клетки арены
type Vec2 struct {
	X, Y int
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// ManhattanTo возвращает расстояние в клетках по осям
func (v Vec2) ManhattanTo(other Vec2) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
