package vec

// Direction направление взгляда/движения сущности
type Direction uint8

const (
	Down Direction = iota // По умолчанию смотрит вниз (юг)
	Up
	Left
	Right
)

// String возвращает строковое представление направления
func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Vec2 возвращает единичный вектор направления.
// Ось Y растёт вниз, как в строках терминала.
func (d Direction) Vec2() Vec2 {
	switch d {
	case Up:
		return Vec2{X: 0, Y: -1}
	case Left:
		return Vec2{X: -1, Y: 0}
	case Right:
		return Vec2{X: 1, Y: 0}
	default:
		return Vec2{X: 0, Y: 1}
	}
}

// Opposite возвращает противоположное направление
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Left:
		return Right
	case Right:
		return Left
	default:
		return Up
	}
}

// ParseDirection разбирает строку направления ("up", "down", "left", "right")
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "down":
		return Down, true
	case "up":
		return Up, true
	case "left":
		return Left, true
	case "right":
		return Right, true
	default:
		return Down, false
	}
}
