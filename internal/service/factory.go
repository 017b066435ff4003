package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/observability"
)

// FactoryClient relays accepted orders to the external fulfillment
// factory. Relay failures are reported to the caller, never retried:
// the order is already persisted and the diner gets a report link
// instead.
type FactoryClient struct {
	URL     string
	APIKey  string
	Client  *http.Client
	Log     zerolog.Logger
	Metrics *observability.Metrics
}

func NewFactoryClient(url, apiKey string, log zerolog.Logger, metrics *observability.Metrics) *FactoryClient {
	return &FactoryClient{
		URL:     url,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 15 * time.Second},
		Log:     log,
		Metrics: metrics,
	}
}

// FulfillResult is the factory's answer: a verification token the
// diner can present and a link to the fulfillment report.
type FulfillResult struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

// ErrFactory is returned when the factory rejects or fails an order.
var ErrFactory = errors.New("factory failed to fulfill order")

type factoryRequest struct {
	Diner struct {
		ID    uint64 `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"diner"`
	Order model.Order `json:"order"`
}

// Fulfill posts the order to the factory and returns its verification
// token and report link.
func (f *FactoryClient) Fulfill(ctx context.Context, diner model.Caller, order model.Order) (FulfillResult, error) {
	var req factoryRequest
	req.Diner.ID = diner.ID
	req.Diner.Name = diner.Name
	req.Diner.Email = diner.Email
	req.Order = order

	body, err := json.Marshal(req)
	if err != nil {
		return FulfillResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL+"/api/order", bytes.NewReader(body))
	if err != nil {
		return FulfillResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if f.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	start := time.Now()
	resp, err := f.Client.Do(httpReq)
	if f.Metrics != nil {
		f.Metrics.ObserveFactoryLatency(time.Since(start))
	}
	if err != nil {
		f.Log.Error().Err(err).Msg("factory: relay failed")
		return FulfillResult{}, fmt.Errorf("%w: %v", ErrFactory, err)
	}
	defer resp.Body.Close()

	var result FulfillResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		f.Log.Error().Err(err).Msg("factory: bad response body")
		return FulfillResult{}, fmt.Errorf("%w: bad response", ErrFactory)
	}
	if resp.StatusCode != http.StatusOK {
		f.Log.Error().Int("status", resp.StatusCode).Msg("factory: order rejected")
		return result, ErrFactory
	}
	return result, nil
}
