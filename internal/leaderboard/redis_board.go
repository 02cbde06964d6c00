package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/annel0/arena-game/internal/eventbus"
	"github.com/annel0/arena-game/internal/game"
	"github.com/annel0/arena-game/internal/logging"
	"github.com/go-redis/redis/v8"
)

// DefaultKey ключ отсортированного множества со счётом
const DefaultKey = "arena:scores"

// Entry строка таблицы лидеров
type Entry struct {
	Symbol string `json:"symbol"`
	Points int    `json:"points"`
}

// Config параметры подключения к Redis
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

// RedisBoard зеркалит общий счёт игры в Redis ZSET для внешних панелей.
// Множество перезаписывается целиком после каждого раунда.
type RedisBoard struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	logger  *logging.Logger
}

// NewRedisBoard подключается к Redis и проверяет соединение
func NewRedisBoard(ctx context.Context, cfg Config, logger *logging.Logger) (*RedisBoard, error) {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return &RedisBoard{client: client, key: cfg.Key, timeout: cfg.Timeout, logger: logger}, nil
}

// Members переводит счёт в элементы ZSET в порядке символов
func Members(scores map[string]int) []*redis.Z {
	symbols := make([]string, 0, len(scores))
	for symbol := range scores {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	members := make([]*redis.Z, 0, len(symbols))
	for _, symbol := range symbols {
		members = append(members, &redis.Z{Score: float64(scores[symbol]), Member: symbol})
	}
	return members
}

// Update заменяет таблицу лидеров атомарно
func (b *RedisBoard) Update(ctx context.Context, scores map[string]int) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.key)
		if len(scores) > 0 {
			pipe.ZAdd(ctx, b.key, Members(scores)...)
		}
		return nil
	})
	return err
}

// Top возвращает до n лучших игроков
func (b *RedisBoard) Top(ctx context.Context, n int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	zs, err := b.client.ZRevRangeWithScores(ctx, b.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		symbol, _ := z.Member.(string)
		entries = append(entries, Entry{Symbol: symbol, Points: int(z.Score)})
	}
	return entries, nil
}

// Subscribe обновляет таблицу по событиям RoundFinished и GameFinished
func (b *RedisBoard) Subscribe(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	filter := eventbus.Filter{Types: []string{string(game.EventRoundFinished), string(game.EventGameFinished)}}
	return bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		var payload game.Event
		if err := ev.Decode(&payload); err != nil {
			b.logger.Error("Ошибка разбора %s %s: %v", ev.EventType, ev.ID, err)
			return
		}
		if payload.Scores == nil {
			return
		}
		if err := b.Update(ctx, payload.Scores); err != nil {
			b.logger.Warn("Ошибка обновления таблицы лидеров: %v", err)
			return
		}
		b.logger.Debug("🏅 Таблица лидеров обновлена после раунда %d", payload.ArenaNumber)
	})
}

// Close закрывает соединение с Redis
func (b *RedisBoard) Close() error {
	return b.client.Close()
}
