package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/annel0/arena-game/internal/arena"
	"github.com/annel0/arena-game/internal/game"
	"github.com/annel0/arena-game/internal/logging"
	"github.com/annel0/arena-game/internal/middleware"
	"github.com/annel0/arena-game/internal/protocol"
	"github.com/annel0/arena-game/internal/server"
	"github.com/annel0/arena-game/internal/storage"
	"github.com/annel0/arena-game/internal/vec"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// GameService операции драйвера, доступные через API
type GameService interface {
	Info() server.Info
	Pole() []server.Standing
	Snapshot() game.Snapshot
	Submit(symbol rune, action arena.EntityAction) error
}

// Seats выдача и проверка токенов на управление персонажем
type Seats interface {
	Login(symbol, password string) (string, error)
	Authorize(token string) (string, error)
}

// History архив завершённых игр
type History interface {
	Get(id string) (storage.GameRecord, error)
	Recent(limit int) ([]storage.GameRecord, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Config конфигурация REST сервера
type Config struct {
	Addr       string // адрес прослушивания, по умолчанию ":8088"
	Service    GameService
	Codec      *protocol.SnapshotCodec // nil - снимки только в JSON
	History    History                 // nil - маршруты /api/history не регистрируются
	Seats      Seats                   // nil - команды принимаются без токена
	Stream     time.Duration           // период потока снимков, по умолчанию 100мс
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *logging.Logger
}

// RestServer REST API состояния игры
type RestServer struct {
	router  *gin.Engine
	http    *http.Server
	service GameService
	codec   *protocol.SnapshotCodec
	history History
	seats   Seats
	metrics *ServerMetrics
	logger  *logging.Logger

	streamInterval time.Duration
	done           chan struct{}
	closeOnce      sync.Once
}

// GenericResponse общий ответ API с ошибкой
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LoginRequest запрос токена места
type LoginRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Password string `json:"password" binding:"required"`
}

const seatKey = "seat_symbol"

// CommandRequest ввод игрока
type CommandRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	Action    string `json:"action" binding:"required"` // walk | cast
	Direction string `json:"direction" binding:"required"`
	Skill     uint16 `json:"skill"`
}

// NewRestServer создаёт REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Logger == nil {
		config.Logger = logging.GetAPILogger()
	}
	if config.Stream <= 0 {
		config.Stream = defaultStreamInterval
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("arena_api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw, err := middleware.NewPrometheusMiddleware("arena_api", config.Registerer, "/api/stream")
	if err != nil {
		return nil, err
	}
	router.Use(promMw.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{})))

	rs := &RestServer{
		router:  router,
		service: config.Service,
		codec:   config.Codec,
		history: config.History,
		seats:   config.Seats,
		metrics: NewServerMetrics(),
		logger:  config.Logger,

		streamInterval: config.Stream,
		done:           make(chan struct{}),
	}
	rs.http = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs, nil
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/game", rs.handleGame)
		api.GET("/pole", rs.handlePole)
		api.GET("/snapshot", rs.handleSnapshot)
		api.GET("/stream", rs.handleStream)
		if rs.seats != nil {
			api.POST("/login", rs.handleLogin)
			api.POST("/command", rs.requireSeat, rs.handleCommand)
		} else {
			api.POST("/command", rs.handleCommand)
		}

		if rs.history != nil {
			api.GET("/history", rs.handleHistory)
			api.GET("/history/:id", rs.handleHistoryRecord)
		}
	}
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	response := gin.H{
		"status":    "ok",
		"time":      time.Now().Unix(),
		"uptime":    rs.metrics.GetUptime(),
		"memory_mb": rs.metrics.GetMemoryUsage(),
		"game":      rs.service.Info().Status,
	}
	if cpuPercent, err := rs.metrics.GetCPUUsage(); err == nil {
		response["cpu_percent"] = cpuPercent
	}
	c.JSON(http.StatusOK, response)
}

func (rs *RestServer) handleGame(c *gin.Context) {
	c.JSON(http.StatusOK, rs.service.Info())
}

func (rs *RestServer) handlePole(c *gin.Context) {
	c.JSON(http.StatusOK, rs.service.Pole())
}

// handleSnapshot отдаёт снимок в JSON или кадром protocol, если клиент его принимает
func (rs *RestServer) handleSnapshot(c *gin.Context) {
	snapshot := rs.service.Snapshot()

	if rs.codec != nil && strings.Contains(c.GetHeader("Accept"), protocol.ContentType) {
		frame, err := rs.codec.Encode(snapshot)
		if err != nil {
			rs.logger.Error("Ошибка кодирования снимка: %v", err)
			c.JSON(http.StatusInternalServerError, GenericResponse{Message: "Внутренняя ошибка сервера"})
			return
		}
		c.Data(http.StatusOK, protocol.ContentType, frame)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// handleCommand принимает ввод игрока
func (rs *RestServer) handleCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса"})
		return
	}

	if utf8.RuneCountInString(req.Symbol) != 1 {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Символ игрока должен быть одним знаком"})
		return
	}
	symbol, _ := utf8.DecodeRuneInString(req.Symbol)

	if seat, ok := c.Get(seatKey); ok && seat != req.Symbol {
		c.JSON(http.StatusForbidden, GenericResponse{Message: "Токен выдан для другого игрока"})
		return
	}

	direction, ok := vec.ParseDirection(req.Direction)
	if !ok {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неизвестное направление: " + req.Direction})
		return
	}

	var action arena.EntityAction
	switch req.Action {
	case "walk":
		action = arena.Walk(direction)
	case "cast":
		skill := arena.SkillID(req.Skill)
		if skill == 0 {
			skill = arena.StrikeSkill
		}
		action = arena.Cast(direction, skill)
	default:
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неизвестное действие: " + req.Action})
		return
	}

	if err := rs.service.Submit(symbol, action); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, server.ErrUnknownPlayer):
			status = http.StatusNotFound
		case errors.Is(err, server.ErrNoRound), errors.Is(err, server.ErrEliminated):
			status = http.StatusConflict
		}
		c.JSON(status, GenericResponse{Message: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Команда принята"})
}

// handleLogin выдает токен по паролю места
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса"})
		return
	}

	token, err := rs.seats.Login(req.Symbol, req.Password)
	if err != nil {
		rs.logger.Warn("Неудачный вход за %q с %s", req.Symbol, c.ClientIP())
		c.JSON(http.StatusUnauthorized, GenericResponse{Message: "Неверный символ или пароль"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "OK", Data: gin.H{"token": token}})
}

// requireSeat проверяет Bearer токен и кладет символ места в контекст
func (rs *RestServer) requireSeat(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{Message: "Требуется токен"})
		return
	}

	symbol, err := rs.seats.Authorize(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{Message: "Недействительный токен"})
		return
	}
	c.Set(seatKey, symbol)
	c.Next()
}

// handleHistory список последних игр, ?limit=N
func (rs *RestServer) handleHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный limit"})
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := rs.history.Recent(limit)
	if err != nil {
		rs.logger.Error("Ошибка чтения архива: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: "Внутренняя ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (rs *RestServer) handleHistoryRecord(c *gin.Context) {
	rec, err := rs.history.Get(c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{Message: "Игра не найдена"})
		return
	}
	if err != nil {
		rs.logger.Error("Ошибка чтения архива: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: "Внутренняя ошибка сервера"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Start запускает REST сервер; блокируется до Shutdown
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.http.Addr)
	if err := rs.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown корректно останавливает сервер и закрывает потоки снимков
func (rs *RestServer) Shutdown(ctx context.Context) error {
	rs.closeOnce.Do(func() { close(rs.done) })
	return rs.http.Shutdown(ctx)
}
