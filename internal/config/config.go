package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig возвращается Validate при некорректной конфигурации
var ErrInvalidConfig = errors.New("invalid config")

// Config корневая структура конфигурации сервера арены
type Config struct {
	Game        GameConfig        `yaml:"game"`
	Server      ServerConfig      `yaml:"server"`
	EventBus    EventBusConfig    `yaml:"eventbus"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Logging     LoggingConfig     `yaml:"logging"`
	Storage     StorageConfig     `yaml:"storage"`
	Auth        AuthConfig        `yaml:"auth"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Webhooks    []WebhookConfig   `yaml:"webhooks"`
}

// GameConfig параметры игровой сессии
type GameConfig struct {
	MapSize      int                 `yaml:"map_size"`
	WinnerPoints int                 `yaml:"winner_points"`
	Participants []ParticipantConfig `yaml:"participants"`
}

// ParticipantConfig участник: символ персонажа и поведение ("" - ввод игрока)
type ParticipantConfig struct {
	Symbol    string `yaml:"symbol"`
	Behaviour string `yaml:"behaviour"`
}

// ServerConfig параметры драйвера и HTTP
type ServerConfig struct {
	TickMs       int    `yaml:"tick_ms"`
	RoundPauseMs int    `yaml:"round_pause_ms"`
	RESTPort     int    `yaml:"rest_port"`
	MetricsPort  int    `yaml:"metrics_port"`
	View         bool   `yaml:"view"`        // Отрисовка арены в терминале
	ViewPlayer   string `yaml:"view_player"` // Символ, которым управляет клавиатура
	StreamMs     int    `yaml:"stream_ms"`   // Период websocket потока снимков
}

// EventBusConfig параметры шины событий. Пустой URL - in-memory шина.
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

// TelemetryConfig параметры OpenTelemetry
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig параметры логирования
type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
	Dir          string `yaml:"dir"`
}

// StorageConfig параметры архива завершённых игр
type StorageConfig struct {
	HistoryDir string `yaml:"history_dir"` // Каталог BadgerDB; пусто - архив в памяти
}

// AuthConfig доступ к командам через REST. Пустой секрет - команды без токена.
type AuthConfig struct {
	Secret      string       `yaml:"secret"` // base64, не короче 32 байт
	TokenTTLMin int          `yaml:"token_ttl_min"`
	Seats       []SeatConfig `yaml:"seats"`
}

// SeatConfig место за ареной: символ и bcrypt хеш пароля
type SeatConfig struct {
	Symbol       string `yaml:"symbol"`
	PasswordHash string `yaml:"password_hash"`
}

// GetSecret возвращает секрет: config -> ENV ARENA_JWT_SECRET
func (a *AuthConfig) GetSecret() string {
	if a.Secret != "" {
		return a.Secret
	}
	return os.Getenv("ARENA_JWT_SECRET")
}

// TokenTTL возвращает срок жизни токена
func (a *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMin) * time.Minute
}

// SeatHashes возвращает таблицу символ -> хеш пароля
func (a *AuthConfig) SeatHashes() map[string]string {
	hashes := make(map[string]string, len(a.Seats))
	for _, seat := range a.Seats {
		hashes[seat.Symbol] = seat.PasswordHash
	}
	return hashes
}

// LeaderboardConfig зеркало счёта в Redis. Пустой адрес - выключено.
type LeaderboardConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Key           string `yaml:"key"`
}

// WebhookConfig внешний получатель событий игры
type WebhookConfig struct {
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	Secret     string   `yaml:"secret"`
	Events     []string `yaml:"events"`
	TimeoutSec int      `yaml:"timeout_sec"`
	RetryCount int      `yaml:"retry_count"`
}

// Timeout возвращает таймаут запроса
func (w WebhookConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSec) * time.Second
}

// Default возвращает конфигурацию по умолчанию: четыре бота на карте 16x16
func Default() *Config {
	return &Config{
		Game: GameConfig{
			MapSize:      16,
			WinnerPoints: 10,
			Participants: []ParticipantConfig{
				{Symbol: "A", Behaviour: "chaser"},
				{Symbol: "B", Behaviour: "chaser"},
				{Symbol: "C", Behaviour: "chaser"},
				{Symbol: "D", Behaviour: "chaser"},
			},
		},
		Server: ServerConfig{
			TickMs:       50,
			RoundPauseMs: 2000,
		},
		EventBus: EventBusConfig{
			Stream:    "ARENA",
			Retention: 24,
			Buffer:    1024,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "arena-server",
		},
		Logging: LoggingConfig{
			ConsoleLevel: "info",
			FileLevel:    "debug",
		},
		Auth: AuthConfig{
			TokenTTLMin: 24 * 60,
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV ARENA_CONFIG; если и он пуст,
// возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ARENA_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить дефолтами
func (c *Config) Validate() error {
	if len(c.Game.Participants) == 0 {
		return fmt.Errorf("%w: game.participants is empty", ErrInvalidConfig)
	}
	seen := make(map[rune]bool, len(c.Game.Participants))
	for i, p := range c.Game.Participants {
		if utf8.RuneCountInString(p.Symbol) != 1 {
			return fmt.Errorf("%w: participant %d symbol %q must be exactly one character", ErrInvalidConfig, i, p.Symbol)
		}
		r, _ := utf8.DecodeRuneInString(p.Symbol)
		if seen[r] {
			return fmt.Errorf("%w: duplicate participant symbol %q", ErrInvalidConfig, p.Symbol)
		}
		seen[r] = true
	}
	if c.Game.MapSize <= 0 {
		return fmt.Errorf("%w: game.map_size must be positive", ErrInvalidConfig)
	}
	if c.Game.WinnerPoints <= 0 {
		return fmt.Errorf("%w: game.winner_points must be positive", ErrInvalidConfig)
	}
	if c.Server.TickMs <= 0 {
		return fmt.Errorf("%w: server.tick_ms must be positive", ErrInvalidConfig)
	}
	if c.Server.RoundPauseMs < 0 {
		return fmt.Errorf("%w: server.round_pause_ms must not be negative", ErrInvalidConfig)
	}
	if c.Server.StreamMs < 0 {
		return fmt.Errorf("%w: server.stream_ms must not be negative", ErrInvalidConfig)
	}
	if c.Server.ViewPlayer != "" {
		r, _ := utf8.DecodeRuneInString(c.Server.ViewPlayer)
		if utf8.RuneCountInString(c.Server.ViewPlayer) != 1 || !seen[r] {
			return fmt.Errorf("%w: server.view_player %q is not a participant", ErrInvalidConfig, c.Server.ViewPlayer)
		}
	}
	for _, seat := range c.Auth.Seats {
		r, _ := utf8.DecodeRuneInString(seat.Symbol)
		if utf8.RuneCountInString(seat.Symbol) != 1 || !seen[r] {
			return fmt.Errorf("%w: auth seat %q is not a participant", ErrInvalidConfig, seat.Symbol)
		}
		if seat.PasswordHash == "" {
			return fmt.Errorf("%w: auth seat %q has no password_hash", ErrInvalidConfig, seat.Symbol)
		}
	}
	if c.Auth.TokenTTLMin < 0 {
		return fmt.Errorf("%w: auth.token_ttl_min must not be negative", ErrInvalidConfig)
	}
	for i, w := range c.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("%w: webhook %d has no url", ErrInvalidConfig, i)
		}
		if w.RetryCount < 0 || w.TimeoutSec < 0 {
			return fmt.Errorf("%w: webhook %d has negative limits", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Symbols возвращает символы участников в порядке состава
func (g GameConfig) Symbols() []rune {
	symbols := make([]rune, 0, len(g.Participants))
	for _, p := range g.Participants {
		r, _ := utf8.DecodeRuneInString(p.Symbol)
		symbols = append(symbols, r)
	}
	return symbols
}

// ViewPlayerSymbol возвращает символ игрока с клавиатуры (0 - только наблюдение)
func (s *ServerConfig) ViewPlayerSymbol() rune {
	if s.ViewPlayer == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.ViewPlayer)
	return r
}

// Tick возвращает период тика
func (s *ServerConfig) Tick() time.Duration {
	return time.Duration(s.TickMs) * time.Millisecond
}

// RoundPause возвращает паузу между раундами
func (s *ServerConfig) RoundPause() time.Duration {
	return time.Duration(s.RoundPauseMs) * time.Millisecond
}

// StreamInterval возвращает период потока снимков; 0 - значение API по умолчанию
func (s *ServerConfig) StreamInterval() time.Duration {
	return time.Duration(s.StreamMs) * time.Millisecond
}

// GetRESTPort возвращает порт REST API с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "ARENA_REST_PORT", 8088)
}

// GetMetricsPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "ARENA_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// GetURL возвращает адрес NATS: config -> ENV ARENA_NATS_URL -> "" (in-memory)
func (e *EventBusConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	return os.Getenv("ARENA_NATS_URL")
}

// RetentionDuration возвращает срок хранения событий в стриме
func (e *EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}
