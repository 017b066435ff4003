package observability

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/slicemill/pizza-order-service/internal/config"
)

// Metrics accumulates process-scoped counters and flushes them to the
// metrics sink on an interval. It is constructed once in main and
// injected into middleware and handlers; nothing here is a package
// global.
type Metrics struct {
	cfg    config.ObservabilityConfig
	client *http.Client
	log    zerolog.Logger

	mu             sync.Mutex
	requests       map[string]uint64 // by HTTP method
	authSuccess    uint64
	authFailure    uint64
	pizzasSold     uint64
	orderFailures  uint64
	revenue        float64
	factoryCalls   uint64
	factoryLatency time.Duration
}

func NewMetrics(cfg config.ObservabilityConfig, log zerolog.Logger) *Metrics {
	return &Metrics{
		cfg:      cfg,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      log,
		requests: map[string]uint64{},
	}
}

// IncRequest counts one inbound request by method.
func (m *Metrics) IncRequest(method string) {
	m.mu.Lock()
	m.requests[method]++
	m.mu.Unlock()
}

// IncAuthSuccess counts one successful authentication.
func (m *Metrics) IncAuthSuccess() {
	m.mu.Lock()
	m.authSuccess++
	m.mu.Unlock()
}

// IncAuthFailure counts one rejected authentication attempt.
func (m *Metrics) IncAuthFailure() {
	m.mu.Lock()
	m.authFailure++
	m.mu.Unlock()
}

// AddOrder records a fulfilled order: pizzas sold and revenue taken.
func (m *Metrics) AddOrder(items int, revenue float64) {
	m.mu.Lock()
	m.pizzasSold += uint64(items)
	m.revenue += revenue
	m.mu.Unlock()
}

// IncOrderFailure counts an order the factory failed to fulfill.
func (m *Metrics) IncOrderFailure() {
	m.mu.Lock()
	m.orderFailures++
	m.mu.Unlock()
}

// ObserveFactoryLatency records one relay round trip.
func (m *Metrics) ObserveFactoryLatency(d time.Duration) {
	m.mu.Lock()
	m.factoryCalls++
	m.factoryLatency += d
	m.mu.Unlock()
}

// Start runs the flush loop until ctx is cancelled. With no sink
// configured the loop never starts.
func (m *Metrics) Start(ctx context.Context) {
	if m.cfg.MetricsURL == "" {
		return
	}
	interval := m.cfg.FlushInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.flush()
			}
		}
	}()
}

// flush snapshots the counters and posts them as one line-oriented
// payload. Counters are cumulative; the sink does the rate math.
func (m *Metrics) flush() {
	m.mu.Lock()
	lines := make([]string, 0, len(m.requests)+6)
	methods := make([]string, 0, len(m.requests))
	for k := range m.requests {
		methods = append(methods, k)
	}
	sort.Strings(methods)
	for _, method := range methods {
		lines = append(lines, fmt.Sprintf("request,source=%s,method=%s total=%d",
			m.cfg.Source, method, m.requests[method]))
	}
	lines = append(lines,
		fmt.Sprintf("auth,source=%s success=%d failure=%d", m.cfg.Source, m.authSuccess, m.authFailure),
		fmt.Sprintf("order,source=%s pizzas=%d failures=%d revenue=%f",
			m.cfg.Source, m.pizzasSold, m.orderFailures, m.revenue),
		fmt.Sprintf("factory,source=%s calls=%d latency_ms=%d",
			m.cfg.Source, m.factoryCalls, m.factoryLatency.Milliseconds()),
	)
	m.mu.Unlock()

	body := strings.Join(lines, "\n")
	req, err := http.NewRequest(http.MethodPost, m.cfg.MetricsURL, bytes.NewReader([]byte(body)))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	if m.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Warn().Err(err).Msg("metrics: flush failed")
		return
	}
	_ = resp.Body.Close()
}
