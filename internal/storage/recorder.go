package storage

import (
	"context"
	"time"

	"github.com/annel0/arena-game/internal/eventbus"
	"github.com/annel0/arena-game/internal/game"
	"github.com/annel0/arena-game/internal/logging"
)

// RecordFinishedGames подписывает архив на события GameFinished
func RecordFinishedGames(ctx context.Context, bus eventbus.EventBus, store *HistoryStore, logger *logging.Logger) (eventbus.Subscription, error) {
	filter := eventbus.Filter{Types: []string{string(game.EventGameFinished)}}
	return bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		var finished game.Event
		if err := ev.Decode(&finished); err != nil {
			logger.Error("Ошибка разбора %s %s: %v", ev.EventType, ev.ID, err)
			return
		}

		rec := RecordFromEvent(ev.ID, ev.Timestamp, finished)
		if err := store.Save(rec); err != nil {
			logger.Error("Ошибка сохранения итогов игры %s: %v", rec.ID, err)
			return
		}
		logger.Info("💾 Итоги игры %s сохранены (%d раундов)", rec.ID, rec.Arenas)
	})
}

// RecordFromEvent строит запись архива из события окончания игры.
// Порядок мест берётся из Ranking.
func RecordFromEvent(id string, finishedAt time.Time, ev game.Event) GameRecord {
	rec := GameRecord{
		ID:         id,
		FinishedAt: finishedAt.UTC(),
		Arenas:     ev.ArenaNumber,
		Standings:  make([]Standing, 0, len(ev.Ranking)),
	}
	for _, symbol := range ev.Ranking {
		rec.Standings = append(rec.Standings, Standing{Symbol: symbol, Points: ev.Scores[symbol]})
	}
	return rec
}
