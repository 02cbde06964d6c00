package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics метрики драйвера арены
type Metrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	entities     prometheus.Gauge
	rounds       prometheus.Counter
	eliminations prometheus.Counter
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_ticks_total",
			Help: "Количество выполненных тиков арены.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arena_tick_duration_seconds",
			Help:    "Длительность одного тика арены.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_entities",
			Help: "Количество сущностей на текущей арене.",
		}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_rounds_total",
			Help: "Количество завершённых раундов.",
		}),
		eliminations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_eliminations_total",
			Help: "Количество выбывших игроков.",
		}),
	}

	for _, c := range []prometheus.Collector{m.ticks, m.tickDuration, m.entities, m.rounds, m.eliminations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
