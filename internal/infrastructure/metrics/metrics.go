package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/feedpilot/backend/internal/domain"
)

// Metrics bundles the Prometheus collectors of the service
type Metrics struct {
	Registry       *prometheus.Registry
	BatchesTotal   prometheus.Counter
	ProductsTotal  *prometheus.CounterVec
	SkippedTotal   prometheus.Counter
	BatchDuration  prometheus.Histogram
	AverageScore   prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	PublishedTotal *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedpilot_batches_total",
		Help: "Total number of optimized batches.",
	})
	products := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedpilot_products_total",
		Help: "Optimized products by performance tier and validity.",
	}, []string{"tier", "valid"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedpilot_products_skipped_total",
		Help: "Input records that could not be optimized.",
	})
	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedpilot_batch_duration_seconds",
		Help:    "Time spent optimizing one batch.",
		Buckets: prometheus.DefBuckets,
	})
	averageScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feedpilot_last_batch_average_score",
		Help: "Average optimization score of the last non-empty batch.",
	})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedpilot_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedpilot_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedpilot_products_published_total",
		Help: "Products pushed to the feed publisher by outcome.",
	}, []string{"outcome"})

	registry.MustRegister(batches, products, skipped, batchDuration, averageScore, httpRequests, httpDuration, published)

	return &Metrics{
		Registry:       registry,
		BatchesTotal:   batches,
		ProductsTotal:  products,
		SkippedTotal:   skipped,
		BatchDuration:  batchDuration,
		AverageScore:   averageScore,
		HTTPRequests:   httpRequests,
		HTTPDuration:   httpDuration,
		PublishedTotal: published,
	}
}

// RecordBatch implements domain.BatchRecorder
func (m *Metrics) RecordBatch(result domain.BatchResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
	m.BatchDuration.Observe(elapsed.Seconds())
	m.SkippedTotal.Add(float64(len(result.Skipped)))

	for _, p := range result.OptimizedProducts {
		m.ProductsTotal.WithLabelValues(p.Tier, strconv.FormatBool(p.Valid)).Inc()
	}
	if len(result.OptimizedProducts) > 0 {
		if avg, err := strconv.ParseFloat(result.Stats.AverageScore, 64); err == nil {
			m.AverageScore.Set(avg)
		}
	}
}

// RecordPublish counts the outcome of a publish call
func (m *Metrics) RecordPublish(result *domain.PublishResult) {
	if m == nil || result == nil {
		return
	}
	m.PublishedTotal.WithLabelValues("updated").Add(float64(result.Updated))
	m.PublishedTotal.WithLabelValues("failed").Add(float64(result.Failed))
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

type instrumentedPublisher struct {
	next    domain.FeedPublisher
	metrics *Metrics
}

// InstrumentPublisher counts the outcome of every publish made through p
func (m *Metrics) InstrumentPublisher(p domain.FeedPublisher) domain.FeedPublisher {
	if m == nil || p == nil {
		return p
	}
	return &instrumentedPublisher{next: p, metrics: m}
}

func (p *instrumentedPublisher) PublishProducts(ctx context.Context, products []domain.EnrichedProduct) (*domain.PublishResult, error) {
	result, err := p.next.PublishProducts(ctx, products)
	p.metrics.RecordPublish(result)
	return result, err
}
