// Package observability holds the service's logging and metrics
// plumbing: a zerolog logger for local output, a shipper that forwards
// structured events to an external aggregator, and process-scoped
// counters flushed to a metrics sink. Both sinks are fire-and-forget:
// delivery failures are logged locally and never affect a request.
package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/slicemill/pizza-order-service/internal/config"
)

// NewLogger builds the service logger. Dev environments get a human
// readable console writer, everything else structured JSON.
func NewLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// LogShipper forwards structured log events to the configured sink.
// Shipping happens on a goroutine per event; the request path never
// waits on the aggregator.
type LogShipper struct {
	cfg    config.ObservabilityConfig
	client *http.Client
	log    zerolog.Logger
}

func NewLogShipper(cfg config.ObservabilityConfig, log zerolog.Logger) *LogShipper {
	return &LogShipper{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

// Ship sends one event to the log sink. With no sink configured it is
// a no-op. Fields must already be scrubbed of secrets by the caller
// (see ScrubFields).
func (s *LogShipper) Ship(event string, fields map[string]interface{}) {
	if s.cfg.LogURL == "" {
		return
	}
	payload := map[string]interface{}{
		"source": s.cfg.Source,
		"event":  event,
		"time":   time.Now().UTC().UnixMilli(),
		"fields": fields,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("log shipper: marshal failed")
		return
	}
	go func() {
		req, err := http.NewRequest(http.MethodPost, s.cfg.LogURL, bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if s.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Warn().Err(err).Msg("log shipper: post failed")
			return
		}
		_ = resp.Body.Close()
	}()
}

// ScrubFields replaces secret-bearing values so credentials and tokens
// never reach the aggregator.
func ScrubFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch k {
		case "password", "token", "authorization", "jwt":
			out[k] = "*****"
		default:
			out[k] = v
		}
	}
	return out
}
