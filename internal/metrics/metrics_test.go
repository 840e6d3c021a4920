package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDeliveryCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(deliveries.WithLabelValues("rejected"))
	ObserveDelivery("rejected")
	ObserveDelivery("rejected")
	after := testutil.ToFloat64(deliveries.WithLabelValues("rejected"))
	if after-before != 2 {
		t.Fatalf("expected 2 rejected deliveries, got %v", after-before)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/api/projects/{projectID}/webhooks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/projects/{projectID}/webhooks", http.MethodGet, "418"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/demo/webhooks", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("/api/projects/{projectID}/webhooks", http.MethodGet, "418"))

	if after-before != 1 {
		t.Fatalf("expected request counted under route pattern, got delta %v", after-before)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RemoteListingFailed()
	server := httptest.NewServer(Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "buildhooks_remote_listing_failures_total") {
		t.Fatalf("expected remote listing counter in scrape output")
	}
}
