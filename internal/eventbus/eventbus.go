package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("eventbus: closed")

// HighPriority события с приоритетом не ниже этого не отбрасываются при переполнении буфера
const HighPriority = 5

// Envelope универсальный контейнер события арены.
type Envelope struct {
	ID        string            `json:"id"`         // UUID события
	Timestamp time.Time         `json:"timestamp"`  // Время создания (UTC)
	Source    string            `json:"source"`     // Имя сервиса-источника
	EventType string            `json:"event_type"` // RoundStarted, PlayerEliminated...
	Version   int               `json:"version"`
	Priority  int               `json:"priority"` // 0=Low … 9=Critical
	Payload   []byte            `json:"payload"`  // JSON полезной нагрузки
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope упаковывает payload в JSON и присваивает событию новый UUID.
func NewEnvelope(source, eventType string, priority int, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  priority,
		Payload:   data,
	}, nil
}

// Decode распаковывает полезную нагрузку
func (e *Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто, все типы
	Sources []string // Если пусто, все источники
}

// Match проверяет, проходит ли событие фильтр
func (f Filter) Match(ev *Envelope) bool {
	return contains(f.Types, ev.EventType) && contains(f.Sources, ev.Source)
}

func contains(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus абстракция шины событий арены.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

// MemoryBus шина внутри процесса. События доставляются подписчикам
// по одному, в порядке публикации.
type MemoryBus struct {
	mu          sync.RWMutex // подписчики
	subscribers map[int]*subscriber
	nextID      int

	sendMu sync.RWMutex // закрытие буфера
	closed bool

	published uint64
	consumed  uint64
	dropped   uint64

	buffer chan *Envelope
	done   chan struct{}
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory шину с указанным буфером.
func NewMemoryBus(capacity int) *MemoryBus {
	if capacity <= 0 {
		capacity = 1
	}
	mb := &MemoryBus{
		subscribers: make(map[int]*subscriber),
		buffer:      make(chan *Envelope, capacity),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

// Publish кладёт событие в буфер. При переполнении события с приоритетом
// ниже HighPriority отбрасываются, остальные ждут места или отмены ctx.
func (mb *MemoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.sendMu.RLock()
	defer mb.sendMu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		atomic.AddUint64(&mb.published, 1)
		return nil
	default:
	}

	if ev.Priority < HighPriority {
		atomic.AddUint64(&mb.dropped, 1)
		return nil
	}

	select {
	case mb.buffer <- ev:
		atomic.AddUint64(&mb.published, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe регистрирует обработчик. Отмена ctx отключает доставку.
func (mb *MemoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = &subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}

	return &memSub{bus: mb, id: id}, nil
}

// Metrics возвращает текущие счётчики.
func (mb *MemoryBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&mb.published),
		Consumed:  atomic.LoadUint64(&mb.consumed),
		Dropped:   atomic.LoadUint64(&mb.dropped),
		InFlight:  len(mb.buffer),
	}
}

// Close прекращает приём событий и дожидается доставки уже принятых.
func (mb *MemoryBus) Close() error {
	mb.sendMu.Lock()
	if mb.closed {
		mb.sendMu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.buffer)
	mb.sendMu.Unlock()

	<-mb.done
	return nil
}

func (mb *MemoryBus) dispatchLoop() {
	defer close(mb.done)

	for ev := range mb.buffer {
		mb.mu.RLock()
		ids := make([]int, 0, len(mb.subscribers))
		for id := range mb.subscribers {
			ids = append(ids, id)
		}
		subs := make([]*subscriber, 0, len(ids))
		sort.Ints(ids)
		for _, id := range ids {
			subs = append(subs, mb.subscribers[id])
		}
		mb.mu.RUnlock()

		for _, sub := range subs {
			if sub.ctx.Err() != nil || !sub.filter.Match(ev) {
				continue
			}
			sub.handler(sub.ctx, ev)
			atomic.AddUint64(&mb.consumed, 1)
		}
	}
}

type memSub struct {
	bus *MemoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
