package termview

import (
	"context"
	"time"

	"github.com/annel0/arena-game/internal/arena"
	"github.com/annel0/arena-game/internal/game"
	"github.com/annel0/arena-game/internal/logging"
	"github.com/annel0/arena-game/internal/vec"
	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
)

// Source источник снимков и приёмник ввода игрока
type Source interface {
	Snapshot() game.Snapshot
	Submit(symbol rune, action arena.EntityAction) error
}

// View отрисовывает игру в терминале и передаёт клавиши локального игрока
type View struct {
	source  Source
	player  rune // 0 - только наблюдение
	refresh time.Duration
	logger  *logging.Logger
}

// New создаёт вид. player - символ, которым управляет клавиатура.
func New(source Source, player rune, refresh time.Duration, logger *logging.Logger) *View {
	if refresh <= 0 {
		refresh = 50 * time.Millisecond
	}
	return &View{source: source, player: player, refresh: refresh, logger: logger}
}

// KeyAction переводит клавишу в действие: стрелки - шаг, пробел - удар
// в текущем направлении сущности
func KeyAction(ev termbox.Event, facing vec.Direction) (arena.EntityAction, bool) {
	if ev.Type != termbox.EventKey {
		return arena.EntityAction{}, false
	}
	switch ev.Key {
	case termbox.KeyArrowUp:
		return arena.Walk(vec.Up), true
	case termbox.KeyArrowDown:
		return arena.Walk(vec.Down), true
	case termbox.KeyArrowLeft:
		return arena.Walk(vec.Left), true
	case termbox.KeyArrowRight:
		return arena.Walk(vec.Right), true
	case termbox.KeySpace:
		return arena.Cast(facing, arena.StrikeSkill), true
	}
	return arena.EntityAction{}, false
}

// IsQuit сообщает, что клавиша завершает просмотр
func IsQuit(ev termbox.Event) bool {
	return ev.Type == termbox.EventKey &&
		(ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC || ev.Ch == 'q')
}

// pumpEvents передаёт события poll в events до EventInterrupt или закрытия done
func pumpEvents(poll func() termbox.Event, events chan<- termbox.Event, done <-chan struct{}) {
	for {
		ev := poll()
		if ev.Type == termbox.EventInterrupt {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// Run рисует кадры до отмены ctx или нажатия выхода
func (v *View) Run(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()

	events := make(chan termbox.Event)
	done := make(chan struct{})
	go pumpEvents(termbox.PollEvent, events, done)
	defer termbox.Interrupt()
	defer close(done)

	ticker := time.NewTicker(v.refresh)
	defer ticker.Stop()

	snapshot := v.source.Snapshot()
	v.draw(snapshot)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if IsQuit(ev) {
				return nil
			}
			v.handleKey(ev, snapshot)
		case <-ticker.C:
			snapshot = v.source.Snapshot()
			v.draw(snapshot)
		}
	}
}

func (v *View) handleKey(ev termbox.Event, snapshot game.Snapshot) {
	if v.player == 0 {
		return
	}
	facing := vec.Down
	for _, entity := range snapshot.Entities {
		if entity.Symbol == string(v.player) {
			facing, _ = vec.ParseDirection(entity.Direction)
		}
	}
	action, ok := KeyAction(ev, facing)
	if !ok {
		return
	}
	if err := v.source.Submit(v.player, action); err != nil {
		v.logger.Debug("Ввод '%c' отклонён: %v", v.player, err)
	}
}

func (v *View) draw(snapshot game.Snapshot) {
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	grid := Frame(snapshot)
	width := ColumnWidth(grid)
	for y, row := range grid {
		for x, r := range row {
			termbox.SetCell(x*width, y, r, colorOf(r), termbox.ColorDefault)
		}
	}

	for i, line := range Legend(snapshot) {
		x := 0
		for _, r := range line {
			termbox.SetCell(x, len(grid)+1+i, r, termbox.ColorDefault, termbox.ColorDefault)
			x += runewidth.RuneWidth(r)
		}
	}
	_ = termbox.Flush()
}

func colorOf(r rune) termbox.Attribute {
	switch r {
	case '#':
		return termbox.ColorBlue
	case '.':
		return termbox.ColorDefault
	case SpellRune:
		return termbox.ColorRed
	default:
		return termbox.ColorYellow | termbox.AttrBold
	}
}
