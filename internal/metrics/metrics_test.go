package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	MessageReceived("crawler-output")
	DecodeFailure("crawler-output")
	RecordResolved("job", "applied")
	EnrichmentRequested("embedding")
	EnrichmentResponded("sentiment", "applied")
	RecrawlRequested()
}

func TestHandlerServesCounters(t *testing.T) {
	Init()
	MessageReceived("crawler-output")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "broker_messages_total") {
		t.Fatal("expected broker_messages_total in metrics output")
	}
}
