package game

// EventKind тип события игры
type EventKind string

const (
	EventRoundStarted     EventKind = "RoundStarted"
	EventPlayerEliminated EventKind = "PlayerEliminated"
	EventRoundFinished    EventKind = "RoundFinished"
	EventGameFinished     EventKind = "GameFinished"
)

// Event событие жизненного цикла раунда. Игра складывает события в буфер,
// драйвер забирает их через DrainEvents.
type Event struct {
	Kind        EventKind      `json:"kind"`
	ArenaNumber int            `json:"arena_number"`
	Symbol      string         `json:"symbol,omitempty"`       // Игрок, к которому относится событие
	Points      int            `json:"points,omitempty"`       // Начисленные очки
	AliveBefore int            `json:"alive_before,omitempty"` // Живых игроков до тика
	Ranking     []string       `json:"ranking,omitempty"`      // Символы по убыванию общего счёта
	Scores      map[string]int `json:"scores,omitempty"`       // Общий счёт по символам
}
