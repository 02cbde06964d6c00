package game

import (
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/arena-game/internal/arena"
	"github.com/annel0/arena-game/internal/character"
	"github.com/annel0/arena-game/internal/logging"
)

// ErrInvalidConfig возвращается при некорректных параметрах игры
var ErrInvalidConfig = errors.New("invalid game config")

// Характеристики персонажей игроков
const (
	MaxLife   = 100
	MaxEnergy = 100
	SpeedBase = 3.0
)

// Status состояние игровой сессии
type Status int

const (
	StatusNotStarted Status = iota
	StatusStarted
	StatusFinished
)

// String возвращает строковое представление состояния
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusStarted:
		return "started"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Participant описание участника: символ персонажа и имя поведения
// ("" - управляется вводом игрока)
type Participant struct {
	Symbol    rune
	Behaviour string
}

// Game игровая сессия: каталог персонажей, игроки, текущая арена и счёт раундов.
// Game однопоточна, синхронизацию обеспечивает драйвер.
type Game struct {
	mapSize      int
	winnerPoints int

	arenaNumber int
	arena       *arena.Arena
	arenaOpts   []arena.Option

	characters      *character.Registry
	nextCharacterID character.ID

	players map[rune]*Player
	roster  []*Player // В порядке состава

	events []Event
	logger *logging.Logger
}

// Option настраивает игру
type Option func(*Game)

// WithArenaOptions передаёт опции каждой создаваемой арене
func WithArenaOptions(opts ...arena.Option) Option {
	return func(g *Game) {
		g.arenaOpts = append(g.arenaOpts, opts...)
	}
}

// WithLogger задаёт логгер игры
func WithLogger(logger *logging.Logger) Option {
	return func(g *Game) {
		g.logger = logger
	}
}

// New создаёт игру, в которой все участники управляются вводом
func New(mapSize, winnerPoints int, symbols []rune, opts ...Option) (*Game, error) {
	roster := make([]Participant, len(symbols))
	for i, symbol := range symbols {
		roster[i] = Participant{Symbol: symbol}
	}
	return NewWithRoster(mapSize, winnerPoints, roster, opts...)
}

// NewWithRoster создаёт игру по составу участников. Персонажам выдаются
// последовательные ID в порядке состава.
func NewWithRoster(mapSize, winnerPoints int, roster []Participant, opts ...Option) (*Game, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: no participants", ErrInvalidConfig)
	}
	if mapSize < arena.MinMapSize {
		return nil, fmt.Errorf("%w: map size %d is lower than %d", ErrInvalidConfig, mapSize, arena.MinMapSize)
	}
	if capacity := arena.SpawnCapacity(mapSize); len(roster) > capacity {
		return nil, fmt.Errorf("%w: %d participants do not fit map of size %d (capacity %d)", ErrInvalidConfig, len(roster), mapSize, capacity)
	}
	if winnerPoints <= 0 {
		return nil, fmt.Errorf("%w: winner points must be positive, got %d", ErrInvalidConfig, winnerPoints)
	}

	g := &Game{
		mapSize:      mapSize,
		winnerPoints: winnerPoints,
		characters:   character.NewRegistry(),
		players:      make(map[rune]*Player, len(roster)),
		roster:       make([]*Player, 0, len(roster)),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logging.GetGameLogger()
	}

	for _, participant := range roster {
		if !arena.HasBehaviour(participant.Behaviour) {
			return nil, fmt.Errorf("%w: participant '%c': %w", ErrInvalidConfig, participant.Symbol, fmt.Errorf("%w: %q", arena.ErrUnknownBehaviour, participant.Behaviour))
		}

		c, err := character.NewBuilder().
			ID(g.nextCharacterID).
			Symbol(participant.Symbol).
			BehaviourName(participant.Behaviour).
			MaxHealth(MaxLife).
			MaxEnergy(MaxEnergy).
			SpeedBase(SpeedBase).
			Build()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if err := g.characters.Add(c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		g.nextCharacterID++

		player := NewPlayer(len(g.roster), c)
		g.players[c.Symbol()] = player
		g.roster = append(g.roster, player)
	}

	g.logger.Debug("Game created: map=%d winner_points=%d players=%d", mapSize, winnerPoints, len(g.roster))
	return g, nil
}

func (g *Game) MapSize() int {
	return g.mapSize
}

func (g *Game) WinnerPoints() int {
	return g.winnerPoints
}

// ArenaNumber возвращает номер текущего (последнего) раунда
func (g *Game) ArenaNumber() int {
	return g.arenaNumber
}

// Arena возвращает активную арену или nil между раундами
func (g *Game) Arena() *arena.Arena {
	return g.arena
}

// Characters возвращает каталог персонажей сессии
func (g *Game) Characters() *character.Registry {
	return g.characters
}

// Player возвращает игрока по символу персонажа
func (g *Game) Player(symbol rune) (*Player, bool) {
	player, exists := g.players[symbol]
	return player, exists
}

// Players возвращает игроков в порядке состава
func (g *Game) Players() []*Player {
	return append([]*Player(nil), g.roster...)
}

// Status возвращает состояние сессии
func (g *Game) Status() Status {
	switch {
	case g.HasFinished():
		return StatusFinished
	case g.arenaNumber == 0:
		return StatusNotStarted
	default:
		return StatusStarted
	}
}

// Pole возвращает игроков по убыванию общего счёта; равные сохраняют порядок состава
func (g *Game) Pole() []*Player {
	sorted := g.Players()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalPoints() > sorted[j].TotalPoints()
	})
	return sorted
}

// CreateNewArena начинает новый раунд: новая арена, по сущности на игрока
// в стартовых позициях, обнулённые очки раунда
func (g *Game) CreateNewArena() {
	if len(g.roster) == 0 {
		panic("create arena without players")
	}

	a := arena.New(g.mapSize, len(g.roster), g.arenaOpts...)
	for _, player := range g.roster {
		position := a.Map().InitialPosition(player.Index())
		entity := a.CreateEntity(player.Character(), position)
		player.AttachEntity(entity)
		player.ResetPartialPoints()
	}

	g.arena = a
	g.arenaNumber++

	g.logger.Debug("Arena %d created with %d players", g.arenaNumber, len(g.roster))
	g.emit(Event{Kind: EventRoundStarted, ArenaNumber: g.arenaNumber})
}

// Step выполняет один тик активной арены и начисляет очки выбывшим в этом тике.
// Все выбывшие за тик получают одинаковое число очков: число игроков, выбывших раньше.
func (g *Game) Step() arena.UpdateReport {
	if g.arena == nil {
		panic("game step without active arena")
	}

	before := g.livingSet()
	report := g.arena.Update()

	points := len(g.roster) - len(before)
	for _, player := range g.roster {
		if _, wasAlive := before[player.Symbol()]; !wasAlive || !player.IsDead() {
			continue
		}
		player.UpdatePoints(points)

		g.logger.Debug("Player '%c' eliminated in arena %d: +%d points", player.Symbol(), g.arenaNumber, points)
		g.emit(Event{
			Kind:        EventPlayerEliminated,
			ArenaNumber: g.arenaNumber,
			Symbol:      string(player.Symbol()),
			Points:      points,
			AliveBefore: len(before),
		})
	}

	return report
}

// LivingPlayers возвращает символы живых игроков в порядке состава
func (g *Game) LivingPlayers() []rune {
	living := make([]rune, 0, len(g.roster))
	for _, player := range g.roster {
		if !player.IsDead() {
			living = append(living, player.Symbol())
		}
	}
	return living
}

func (g *Game) livingSet() map[rune]struct{} {
	set := make(map[rune]struct{}, len(g.roster))
	for _, player := range g.roster {
		if !player.IsDead() {
			set[player.Symbol()] = struct{}{}
		}
	}
	return set
}

// IsRoundOver сообщает, что на арене остался один живой игрок или никого
func (g *Game) IsRoundOver() bool {
	if g.arena == nil {
		return false
	}
	return len(g.LivingPlayers()) <= 1
}

// EndRound завершает раунд: выжившие получают очки как за последнее место
// выбывания (число уже выбывших), арена удаляется
func (g *Game) EndRound() {
	if g.arena == nil {
		panic("end round without active arena")
	}

	living := g.LivingPlayers()
	points := len(g.roster) - len(living)
	for _, symbol := range living {
		g.players[symbol].UpdatePoints(points)
	}
	for _, player := range g.roster {
		player.DetachEntity()
	}
	g.arena = nil

	ranking := g.ranking()
	g.logger.Debug("Arena %d finished, survivors=%d ranking=%v", g.arenaNumber, len(living), ranking)
	g.emit(Event{Kind: EventRoundFinished, ArenaNumber: g.arenaNumber, Points: points, Ranking: ranking, Scores: g.scores()})

	if g.HasFinished() {
		g.emit(Event{Kind: EventGameFinished, ArenaNumber: g.arenaNumber, Ranking: ranking, Scores: g.scores()})
	}
}

// HasFinished сообщает, что хотя бы один игрок набрал очки для победы
func (g *Game) HasFinished() bool {
	for _, player := range g.roster {
		if player.TotalPoints() >= g.winnerPoints {
			return true
		}
	}
	return false
}

// Command передаёт ввод игрока его сущности; действие применится в начале
// следующего тика. Символ должен принадлежать игроку, а раунд - быть активным.
// Возвращает false, если сущность игрока уже удалена.
func (g *Game) Command(symbol rune, action arena.EntityAction) bool {
	player, exists := g.players[symbol]
	if !exists {
		panic(fmt.Sprintf("command for unknown player '%c'", symbol))
	}
	if g.arena == nil {
		panic("command without active arena")
	}
	return g.arena.Enqueue(player.EntityID(), action)
}

// DrainEvents возвращает накопленные события и очищает буфер
func (g *Game) DrainEvents() []Event {
	events := g.events
	g.events = nil
	return events
}

func (g *Game) emit(event Event) {
	g.events = append(g.events, event)
}

func (g *Game) ranking() []string {
	pole := g.Pole()
	ranking := make([]string, len(pole))
	for i, player := range pole {
		ranking[i] = string(player.Symbol())
	}
	return ranking
}

func (g *Game) scores() map[string]int {
	scores := make(map[string]int, len(g.roster))
	for _, player := range g.roster {
		scores[string(player.Symbol())] = player.TotalPoints()
	}
	return scores
}
