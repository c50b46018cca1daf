package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	deliveries      *CounterVec
	deliveryLatency *HistogramVec
	checkRuns       *CounterVec
	webhookEvents   *CounterVec

	storeUp   *Gauge
	storePing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process metrics, or nil when metrics are disabled.
// Every method is nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("apl_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"apl_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("apl_api_inflight_requests", "In-flight API requests."),
		deliveries:  NewCounterVec("apl_notification_deliveries_total", "Push deliveries by outcome.", []string{"state"}),
		deliveryLatency: NewHistogramVec(
			"apl_notification_delivery_duration_seconds",
			"Push delivery latency in seconds by outcome.",
			[]string{"state"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		),
		checkRuns:     NewCounterVec("apl_check_runs_total", "Pattern change checks by outcome.", []string{"outcome"}),
		webhookEvents: NewCounterVec("apl_webhook_events_total", "Webhook events by event type and status.", []string{"event", "status"}),
		storeUp:       NewGauge("apl_store_up", "1 when the state store answered the last ping."),
		storePing:     NewGauge("apl_store_ping_seconds", "Latency of the last state store ping."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, pw := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.deliveries, m.deliveryLatency, m.checkRuns, m.webhookEvents,
		m.storeUp, m.storePing,
	} {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveDelivery(state string, dur time.Duration) {
	if m == nil {
		return
	}
	m.deliveries.Inc(state)
	m.deliveryLatency.Observe(dur.Seconds(), state)
}

func (m *Metrics) IncCheckRun(outcome string) {
	if m == nil {
		return
	}
	m.checkRuns.Inc(outcome)
}

func (m *Metrics) IncWebhookEvent(event, status string) {
	if m == nil {
		return
	}
	if event == "" {
		event = "unknown"
	}
	m.webhookEvents.Inc(event, status)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// StartStoreCollector pings the state store on an interval until ctx ends.
func (m *Metrics) StartStoreCollector(ctx context.Context, log *logger.Logger, p Pinger, interval time.Duration) {
	if m == nil || p == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sampleStore(ctx, log, p)
			}
		}
	}()
}

func (m *Metrics) sampleStore(ctx context.Context, log *logger.Logger, p Pinger) {
	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		m.storeUp.Set(0)
		if log != nil {
			log.Warn("metrics: store ping failed", "error", err)
		}
		return
	}
	m.storeUp.Set(1)
	m.storePing.Set(time.Since(start).Seconds())
}
