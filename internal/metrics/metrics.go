// Package metrics собирает метрики бронирования в Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder то, что сервисы сообщают о своей работе
type Recorder interface {
	// RecordBooking результат попытки записи (err == nil - успех)
	RecordBooking(err error)
	RecordCancellation(err error)
	// RecordLockWait сколько ждали блокировку ключа
	RecordLockWait(kind string, wait time.Duration)
	RecordCandidateSearch(found int, took time.Duration)
	// RecordGuardDecision решение по time-off / замене расписания
	RecordGuardDecision(op string, err error)
}

// Collector реализация Recorder поверх Prometheus
type Collector struct {
	bookings       *prometheus.CounterVec
	cancellations  *prometheus.CounterVec
	lockWait       *prometheus.HistogramVec
	searches       prometheus.Counter
	searchLatency  prometheus.Histogram
	candidates     prometheus.Histogram
	guardDecisions *prometheus.CounterVec
}

// NewCollector создаёт коллектор и регистрирует метрики в reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lesson_booking_bookings_total",
			Help: "Попытки записи на слот по результату",
		}, []string{"result"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lesson_booking_cancellations_total",
			Help: "Отмены записей по результату",
		}, []string{"result"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lesson_booking_lock_wait_seconds",
			Help:    "Ожидание блокировки ключа",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 3},
		}, []string{"kind"}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lesson_booking_candidate_searches_total",
			Help: "Количество поисков подходящих учителей",
		}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lesson_booking_candidate_search_seconds",
			Help:    "Длительность поиска учителей",
			Buckets: prometheus.DefBuckets,
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lesson_booking_candidates_found",
			Help:    "Сколько учителей нашёл поиск",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lesson_booking_guard_decisions_total",
			Help: "Решения по изменениям доступности",
		}, []string{"op", "result"}),
	}

	reg.MustRegister(
		c.bookings,
		c.cancellations,
		c.lockWait,
		c.searches,
		c.searchLatency,
		c.candidates,
		c.guardDecisions,
	)

	return c
}

func (c *Collector) RecordBooking(err error) {
	c.bookings.WithLabelValues(model.Code(err)).Inc()
}

func (c *Collector) RecordCancellation(err error) {
	c.cancellations.WithLabelValues(model.Code(err)).Inc()
}

func (c *Collector) RecordLockWait(kind string, wait time.Duration) {
	c.lockWait.WithLabelValues(kind).Observe(wait.Seconds())
}

func (c *Collector) RecordCandidateSearch(found int, took time.Duration) {
	c.searches.Inc()
	c.searchLatency.Observe(took.Seconds())
	c.candidates.Observe(float64(found))
}

func (c *Collector) RecordGuardDecision(op string, err error) {
	c.guardDecisions.WithLabelValues(op, model.Code(err)).Inc()
}

// Handler отдаёт метрики для скрейпа
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop ничего не записывает
type Nop struct{}

func (Nop) RecordBooking(error)                      {}
func (Nop) RecordCancellation(error)                 {}
func (Nop) RecordLockWait(string, time.Duration)     {}
func (Nop) RecordCandidateSearch(int, time.Duration) {}
func (Nop) RecordGuardDecision(string, error)        {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
