package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/arena-game/internal/arena"
	"github.com/annel0/arena-game/internal/eventbus"
	"github.com/annel0/arena-game/internal/game"
	"github.com/annel0/arena-game/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrUnknownPlayer символ не принадлежит ни одному игроку
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrNoRound раунд не идёт (пауза между раундами или игра окончена)
	ErrNoRound = errors.New("no active round")
	// ErrEliminated игрок выбыл из текущего раунда
	ErrEliminated = errors.New("player eliminated")
)

// Options параметры драйвера. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	Tick       time.Duration
	RoundPause time.Duration
	Bus        eventbus.EventBus // nil - события не публикуются
	Metrics    *Metrics          // nil - без метрик
	Tracer     trace.Tracer
	Logger     *logging.Logger
	Clock      func() time.Time
	Source     string // Source в конвертах событий
}

// Standing строка итоговой таблицы
type Standing struct {
	Symbol string `json:"symbol"`
	Points int    `json:"points"`
}

// Info краткое состояние игры для API
type Info struct {
	Status       string   `json:"status"`
	ArenaNumber  int      `json:"arena_number"`
	MapSize      int      `json:"map_size"`
	WinnerPoints int      `json:"winner_points"`
	Living       []string `json:"living"`
	Ticks        uint64   `json:"ticks"`
}

// Server драйвер игры: с фиксированной частотой создаёт арены, выполняет тики,
// завершает раунды и публикует события. Game доступна только под mu.
type Server struct {
	mu   sync.Mutex
	game *game.Game
	opts Options

	ticks       uint64
	pausedUntil time.Time
	roundSpan   trace.Span
}

// New создаёт драйвер для готовой игры
func New(g *game.Game, opts Options) *Server {
	if opts.Tick <= 0 {
		opts.Tick = 50 * time.Millisecond
	}
	if opts.RoundPause < 0 {
		opts.RoundPause = 0
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/annel0/arena-game/internal/server")
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetServerLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Source == "" {
		opts.Source = "arena-server"
	}
	return &Server{game: g, opts: opts}
}

// Run выполняет тики с периодом Tick, пока игра не закончится или ctx не отменён.
// Возвращает nil по окончании игры.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()

	s.opts.Logger.Info("🎮 Игра запущена: тик %v, пауза между раундами %v", s.opts.Tick, s.opts.RoundPause)

	for {
		select {
		case <-ctx.Done():
			s.endRoundSpan()
			return ctx.Err()
		case <-ticker.C:
			if s.Tick(ctx) {
				s.logPole()
				return nil
			}
		}
	}
}

// Tick выполняет одну итерацию драйвера. Возвращает true, когда игра окончена.
func (s *Server) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if s.game.HasFinished() {
		s.mu.Unlock()
		return true
	}

	now := s.opts.Clock()
	if s.game.Arena() == nil {
		if now.Before(s.pausedUntil) {
			s.mu.Unlock()
			return false
		}
		s.game.CreateNewArena()
		s.startRoundSpan(ctx)
	} else {
		s.step(now)
	}

	events := s.game.DrainEvents()
	s.traceEvents(events)
	finished := s.game.HasFinished()
	s.mu.Unlock()

	s.publish(ctx, events)
	return finished
}

// step выполняет тик арены и при необходимости завершает раунд. Вызывается под mu.
func (s *Server) step(now time.Time) {
	started := time.Now()
	s.game.Step()
	current := s.game.Arena()
	expireSpells(current, now)
	s.ticks++

	if m := s.opts.Metrics; m != nil {
		m.ticks.Inc()
		m.tickDuration.Observe(time.Since(started).Seconds())
		m.entities.Set(float64(current.EntityCount()))
	}

	if !s.game.IsRoundOver() {
		return
	}
	s.game.EndRound()
	s.pausedUntil = now.Add(s.opts.RoundPause)
	if m := s.opts.Metrics; m != nil {
		m.rounds.Inc()
		m.entities.Set(0)
	}
}

// Submit передаёт действие игрока в текущий раунд; применится на следующем тике
func (s *Server) Submit(symbol rune, action arena.EntityAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, exists := s.game.Player(symbol)
	if !exists {
		return fmt.Errorf("%w: '%c'", ErrUnknownPlayer, symbol)
	}
	if s.game.Arena() == nil {
		return ErrNoRound
	}
	if player.IsDead() || !s.game.Command(symbol, action) {
		return fmt.Errorf("%w: '%c'", ErrEliminated, symbol)
	}
	return nil
}

// Snapshot возвращает копию состояния игры
func (s *Server) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// Pole возвращает таблицу по убыванию общего счёта
func (s *Server) Pole() []Standing {
	s.mu.Lock()
	defer s.mu.Unlock()

	pole := s.game.Pole()
	standings := make([]Standing, len(pole))
	for i, player := range pole {
		standings[i] = Standing{Symbol: string(player.Symbol()), Points: player.TotalPoints()}
	}
	return standings
}

// Info возвращает краткое состояние игры
func (s *Server) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		Status:       s.game.Status().String(),
		ArenaNumber:  s.game.ArenaNumber(),
		MapSize:      s.game.MapSize(),
		WinnerPoints: s.game.WinnerPoints(),
		Living:       []string{},
		Ticks:        s.ticks,
	}
	if s.game.Arena() != nil {
		for _, symbol := range s.game.LivingPlayers() {
			info.Living = append(info.Living, string(symbol))
		}
	}
	return info
}

func (s *Server) logPole() {
	for place, standing := range s.Pole() {
		s.opts.Logger.Info("🏆 %d. '%s' %d", place+1, standing.Symbol, standing.Points)
	}
}

func (s *Server) startRoundSpan(ctx context.Context) {
	_, s.roundSpan = s.opts.Tracer.Start(ctx, "arena.round",
		trace.WithAttributes(attribute.Int("arena.number", s.game.ArenaNumber())),
	)
	s.opts.Logger.Info("⚔️ Раунд %d начался", s.game.ArenaNumber())
}

func (s *Server) endRoundSpan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roundSpan != nil {
		s.roundSpan.End()
		s.roundSpan = nil
	}
}

// traceEvents отражает события игры в логе, метриках и span раунда. Вызывается под mu.
func (s *Server) traceEvents(events []game.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case game.EventPlayerEliminated:
			s.opts.Logger.Info("💀 Игрок '%s' выбыл: +%d", ev.Symbol, ev.Points)
			if m := s.opts.Metrics; m != nil {
				m.eliminations.Inc()
			}
			if s.roundSpan != nil {
				s.roundSpan.AddEvent("elimination", trace.WithAttributes(
					attribute.String("player.symbol", ev.Symbol),
					attribute.Int("player.points", ev.Points),
				))
			}

		case game.EventRoundFinished:
			s.opts.Logger.Info("🏁 Раунд %d окончен: %v", ev.ArenaNumber, ev.Ranking)
			if s.roundSpan != nil {
				s.roundSpan.SetAttributes(attribute.StringSlice("arena.ranking", ev.Ranking))
				s.roundSpan.End()
				s.roundSpan = nil
			}

		case game.EventGameFinished:
			s.opts.Logger.Info("🎉 Игра окончена после %d раундов", ev.ArenaNumber)
		}
	}
}

func (s *Server) publish(ctx context.Context, events []game.Event) {
	if s.opts.Bus == nil {
		return
	}

	for _, ev := range events {
		priority := 1
		if ev.Kind == game.EventPlayerEliminated || ev.Kind == game.EventGameFinished {
			priority = eventbus.HighPriority
		}

		envelope, err := eventbus.NewEnvelope(s.opts.Source, string(ev.Kind), priority, ev)
		if err != nil {
			s.opts.Logger.Error("Ошибка упаковки события %s: %v", ev.Kind, err)
			continue
		}
		if err := s.opts.Bus.Publish(ctx, envelope); err != nil {
			s.opts.Logger.Warn("Не удалось опубликовать %s: %v", ev.Kind, err)
		}
	}
}
