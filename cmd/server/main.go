package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/arena-game/internal/api"
	"github.com/annel0/arena-game/internal/auth"
	"github.com/annel0/arena-game/internal/config"
	"github.com/annel0/arena-game/internal/eventbus"
	"github.com/annel0/arena-game/internal/game"
	"github.com/annel0/arena-game/internal/leaderboard"
	"github.com/annel0/arena-game/internal/logging"
	"github.com/annel0/arena-game/internal/observability"
	"github.com/annel0/arena-game/internal/protocol"
	"github.com/annel0/arena-game/internal/server"
	"github.com/annel0/arena-game/internal/storage"
	"github.com/annel0/arena-game/internal/termview"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (по умолчанию ENV ARENA_CONFIG)")
	hashPassword := flag.String("hash-password", "", "Вывести bcrypt хеш пароля для auth.seats и выйти")
	genSecret := flag.Bool("gen-secret", false, "Вывести случайный секрет для auth.secret и выйти")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("❌ Ошибка хеширования: %v", err)
		}
		fmt.Println(hash)
		return
	}
	if *genSecret {
		fmt.Println(auth.GenerateSecureSecret())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := setupLogging(cfg); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.GetLoggerManager().CloseAll()
	defer logging.CloseDefaultLogger()

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

// setupLogging применяет уровни из конфигурации. В режиме терминального вида
// консоль отдана под арену, логи пишутся только в файл.
func setupLogging(cfg *config.Config) error {
	consoleLevel, err := logging.ParseLevel(cfg.Logging.ConsoleLevel)
	if err != nil {
		return err
	}
	fileLevel, err := logging.ParseLevel(cfg.Logging.FileLevel)
	if err != nil {
		return err
	}
	if cfg.Server.View {
		consoleLevel = logging.OFF
	}

	logging.Configure(logging.Options{
		Dir:             cfg.Logging.Dir,
		MinConsoleLevel: consoleLevel,
		MinFileLevel:    fileLevel,
	})
	return logging.InitDefaultLogger("server")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.GetServerLogger()
	logger.Info("🎮 Запуск арены: карта %d, игроков %d, до победы %d",
		cfg.Game.MapSize, len(cfg.Game.Participants), cfg.Game.WinnerPoints)

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.ServiceName, logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("Ошибка остановки OpenTelemetry: %v", err)
		}
	}()

	roster := make([]game.Participant, 0, len(cfg.Game.Participants))
	for i, symbol := range cfg.Game.Symbols() {
		roster = append(roster, game.Participant{Symbol: symbol, Behaviour: cfg.Game.Participants[i].Behaviour})
	}
	g, err := game.NewWithRoster(cfg.Game.MapSize, cfg.Game.WinnerPoints, roster)
	if err != nil {
		return err
	}

	// Архив закрывается после шины: её Close дожидается записи последних итогов
	history, err := storage.OpenHistory(cfg.Storage.HistoryDir)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer history.Close()

	board := newLeaderboard(ctx, cfg)
	if board != nil {
		defer board.Close()
	}

	bus, err := newBus(cfg)
	if err != nil {
		return err
	}
	defer bus.Close()

	busLogger := logging.GetEventBusLogger()
	if _, err := eventbus.StartLoggingListener(ctx, bus, busLogger); err != nil {
		return fmt.Errorf("eventbus listener: %w", err)
	}

	if _, err := storage.RecordFinishedGames(ctx, bus, history, logging.GetStorageLogger()); err != nil {
		return fmt.Errorf("history recorder: %w", err)
	}

	if board != nil {
		if _, err := board.Subscribe(ctx, bus); err != nil {
			return fmt.Errorf("leaderboard: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := eventbus.NewMetricsExporter(bus, registry, time.Second)
	if err != nil {
		return err
	}
	go exporter.Run(ctx)

	metrics, err := server.NewMetrics(registry)
	if err != nil {
		return err
	}

	if len(cfg.Webhooks) > 0 {
		hooks := make([]api.Webhook, 0, len(cfg.Webhooks))
		for _, w := range cfg.Webhooks {
			hooks = append(hooks, api.Webhook{
				Name: w.Name, URL: w.URL, Secret: w.Secret, Events: w.Events,
				Timeout: w.Timeout(), RetryCount: w.RetryCount,
			})
		}
		notifier := api.NewWebhookNotifier(hooks, time.Second, logging.GetAPILogger())
		if _, err := notifier.Subscribe(ctx, bus); err != nil {
			return fmt.Errorf("webhooks: %w", err)
		}
		defer notifier.Wait()
	}

	driver := server.New(g, server.Options{
		Tick:       cfg.Server.Tick(),
		RoundPause: cfg.Server.RoundPause(),
		Bus:        bus,
		Metrics:    metrics,
	})

	codec, err := protocol.NewSnapshotCodec(0)
	if err != nil {
		return err
	}
	defer codec.Close()

	seats, err := newSeats(cfg)
	if err != nil {
		return err
	}

	rest, err := api.NewRestServer(api.Config{
		Addr:       fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Service:    driver,
		Codec:      codec,
		History:    history,
		Seats:      seats,
		Stream:     cfg.Server.StreamInterval(),
		Registerer: registry,
		Gatherer:   registry,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := rest.Start(); err != nil {
			logger.Error("❌ Ошибка REST API: %v", err)
		}
	}()

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("📈 Prometheus /metrics доступен по адресу %s", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rest.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	if cfg.Server.View {
		view := termview.New(driver, cfg.Server.ViewPlayerSymbol(), cfg.Server.Tick(), logger)
		viewCtx, cancelView := context.WithCancel(ctx)
		viewDone := make(chan struct{})
		go func() {
			defer close(viewDone)
			if err := view.Run(viewCtx); err != nil {
				logger.Error("Ошибка терминала: %v", err)
			}
			// Выход из вида завершает сервер
			stop()
		}()
		defer func() {
			cancelView()
			<-viewDone
		}()
	}

	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newBus выбирает шину: JetStream при заданном URL, иначе in-memory
func newBus(cfg *config.Config) (eventbus.EventBus, error) {
	url := cfg.EventBus.GetURL()
	if url == "" {
		return eventbus.NewMemoryBus(cfg.EventBus.Buffer), nil
	}

	bus, err := eventbus.NewJetStreamBus(url, cfg.EventBus.Stream, cfg.EventBus.RetentionDuration())
	if err != nil {
		return nil, fmt.Errorf("eventbus: %w", err)
	}
	logging.GetEventBusLogger().Info("📨 JetStream подключен: %s, стрим %s", url, cfg.EventBus.Stream)
	return bus, nil
}

// newLeaderboard подключает таблицу лидеров в Redis; недоступный Redis не мешает игре
func newLeaderboard(ctx context.Context, cfg *config.Config) *leaderboard.RedisBoard {
	if cfg.Leaderboard.RedisAddr == "" {
		return nil
	}

	logger := logging.GetComponentLogger("leaderboard")
	board, err := leaderboard.NewRedisBoard(ctx, leaderboard.Config{
		Addr:     cfg.Leaderboard.RedisAddr,
		Password: cfg.Leaderboard.RedisPassword,
		DB:       cfg.Leaderboard.RedisDB,
		Key:      cfg.Leaderboard.Key,
	}, logger)
	if err != nil {
		logger.Warn("⚠️ Таблица лидеров в Redis отключена: %v", err)
		return nil
	}
	logger.Info("🏅 Таблица лидеров: redis %s", cfg.Leaderboard.RedisAddr)
	return board
}

// newSeats включает вход по паролю, если задан секрет
func newSeats(cfg *config.Config) (api.Seats, error) {
	raw := cfg.Auth.GetSecret()
	if raw == "" {
		return nil, nil
	}

	secret, err := auth.DecodeSecret(raw)
	if err != nil {
		return nil, fmt.Errorf("auth.secret: %w", err)
	}
	signer, err := auth.NewSigner(secret, cfg.Auth.TokenTTL())
	if err != nil {
		return nil, err
	}
	logging.GetAPILogger().Info("🔐 Команды требуют токен, мест: %d", len(cfg.Auth.Seats))
	return auth.NewSeats(signer, cfg.Auth.SeatHashes()), nil
}
