package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"buildhooks/internal/delivery"
	"buildhooks/internal/payload"
)

// Hook is a webhook receiver that records every payload it is sent.
type Hook struct {
	*httptest.Server

	mu          sync.Mutex
	status      int
	payloads    []payload.Payload
	deliveryIDs []string
}

// NewHook starts a receiver answering with status (200 when zero). It is
// closed when the test ends.
func NewHook(t testing.TB, status int) *Hook {
	t.Helper()
	if status == 0 {
		status = http.StatusOK
	}
	h := &Hook{status: status}
	h.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("hook read body: %v", err)
		}
		var doc payload.Payload
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Errorf("hook decode body: %v", err)
		}
		h.mu.Lock()
		h.payloads = append(h.payloads, doc)
		h.deliveryIDs = append(h.deliveryIDs, r.Header.Get(delivery.HeaderDeliveryID))
		h.mu.Unlock()
		w.WriteHeader(h.status)
	}))
	t.Cleanup(h.Close)
	return h
}

// Payloads returns the payloads received so far.
func (h *Hook) Payloads() []payload.Payload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]payload.Payload(nil), h.payloads...)
}

// DeliveryIDs returns the delivery header of each request received so far.
func (h *Hook) DeliveryIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deliveryIDs...)
}

// DeadURL returns the URL of a server that has already been shut down, so
// connecting to it fails at the transport level.
func DeadURL(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	return url
}
