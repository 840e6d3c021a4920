package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"buildhooks/internal/metrics"
	"buildhooks/internal/payload"
)

const (
	// DefaultTimeout bounds a single POST.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent identifies outbound requests.
	DefaultUserAgent = "buildhooks/0.1.0"
	// HeaderDeliveryID carries the notification's delivery id; every
	// destination of one batch receives the same value.
	HeaderDeliveryID = "X-Buildhooks-Delivery"

	maxDetailBytes = 512
)

// Status classifies a delivery attempt.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Outcome is the result of delivering to one destination.
type Outcome struct {
	URL        string        `json:"url"`
	Status     Status        `json:"status"`
	StatusCode int           `json:"statusCode,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	ElapsedMS  int64         `json:"elapsedMs"`
	Elapsed    time.Duration `json:"-"`
	Err        error         `json:"-"`
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClient replaces the HTTP client. Its Timeout is used as is.
func WithClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithTimeout sets the per-request timeout; non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.client = &http.Client{Timeout: timeout, Transport: d.client.Transport}
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(d *Dispatcher) {
		if ua := strings.TrimSpace(userAgent); ua != "" {
			d.userAgent = ua
		}
	}
}

// Dispatcher sends payloads to webhook URLs.
type Dispatcher struct {
	client    *http.Client
	userAgent string
}

// New builds a dispatcher with a DefaultTimeout client.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver POSTs doc to each destination in order and returns one outcome per
// destination, in the same order. It never returns early.
func (d *Dispatcher) Deliver(ctx context.Context, doc payload.Payload, destinations []string, deliveryID string) []Outcome {
	outcomes := make([]Outcome, 0, len(destinations))
	body, err := json.Marshal(doc)
	if err != nil {
		for _, destination := range destinations {
			outcomes = append(outcomes, record(Outcome{
				URL:    destination,
				Status: StatusFailed,
				Detail: "encode payload: " + err.Error(),
				Err:    fmt.Errorf("encode payload: %w", err),
			}))
		}
		return outcomes
	}

	for _, destination := range destinations {
		outcomes = append(outcomes, record(d.post(ctx, destination, body, deliveryID)))
	}
	return outcomes
}

func (d *Dispatcher) post(ctx context.Context, destination string, body []byte, deliveryID string) (outcome Outcome) {
	outcome.URL = destination
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome.Status = StatusFailed
			outcome.Err = fmt.Errorf("delivery panic: %v", r)
			outcome.Detail = outcome.Err.Error()
		}
		outcome.Elapsed = time.Since(start)
		outcome.ElapsedMS = outcome.Elapsed.Milliseconds()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return failed(outcome, fmt.Errorf("build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)
	if deliveryID != "" {
		req.Header.Set(HeaderDeliveryID, deliveryID)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return failed(outcome, fmt.Errorf("send webhook: %w", err))
	}
	defer resp.Body.Close()

	outcome.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
		outcome.Status = StatusRejected
		outcome.Detail = strings.TrimSpace(fmt.Sprintf("%s %s", http.StatusText(resp.StatusCode), strings.TrimSpace(string(snippet))))
		outcome.Err = fmt.Errorf("webhook returned %d", resp.StatusCode)
		return outcome
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	outcome.Status = StatusDelivered
	return outcome
}

func failed(outcome Outcome, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Err = err
	outcome.Detail = err.Error()
	return outcome
}

func record(outcome Outcome) Outcome {
	metrics.ObserveDelivery(string(outcome.Status))
	return outcome
}
