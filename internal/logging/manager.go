package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Компоненты сервера арены
const (
	ComponentArena    = "arena"
	ComponentGame     = "game"
	ComponentServer   = "server"
	ComponentAPI      = "api"
	ComponentStorage  = "storage"
	ComponentEventBus = "eventbus"
)

// LoggerManager хранит по одному логгеру на компонент
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
}

var (
	managerOnce   sync.Once
	globalManager *LoggerManager
)

// GetLoggerManager возвращает общий менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{loggers: make(map[string]*Logger)}
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, создавая его с текущими настройками Configure
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}
	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("logger %s: %w", component, err)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger как GetLogger, но при ошибке файла отдаёт логгер только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	current().Warn("Логгер %s без файла: %v", component, err)
	fallback := &Logger{
		component:       component,
		consoleLogger:   current().consoleLogger,
		minConsoleLevel: INFO,
		minFileLevel:    OFF,
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if existing, ok := lm.loggers[component]; ok {
		return existing
	}
	lm.loggers[component] = fallback
	return fallback
}

// Components возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) Components() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetLevels меняет пороги уже созданного логгера
func (lm *LoggerManager) SetLevels(component string, console, file LogLevel) error {
	lm.mu.Lock()
	logger, ok := lm.loggers[component]
	lm.mu.Unlock()
	if !ok {
		return fmt.Errorf("logger %s not found", component)
	}

	logger.mu.Lock()
	logger.minConsoleLevel = console
	if logger.file != nil {
		logger.minFileLevel = file
	}
	logger.mu.Unlock()
	return nil
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for name, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("logger %s: %w", name, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger логгер произвольного компонента
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetArenaLogger() *Logger { return GetComponentLogger(ComponentArena) }
func GetGameLogger() *Logger { return GetComponentLogger(ComponentGame) }
func GetServerLogger() *Logger { return GetComponentLogger(ComponentServer) }
func GetAPILogger() *Logger { return GetComponentLogger(ComponentAPI) }
func GetStorageLogger() *Logger { return GetComponentLogger(ComponentStorage) }
func GetEventBusLogger() *Logger { return GetComponentLogger(ComponentEventBus) }
