package ragquery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server) Client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewClient(log, srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestAskSendsWireShapeAndParsesResult(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"Stratification organizes society into layers.","sources":[{"document_id":"d1","title":"Ch3"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	res, err := c.Ask(context.Background(), "proj-1", "What is stratification?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if gotBody["project_id"] != "proj-1" || gotBody["question"] != "What is stratification?" {
		t.Fatalf("request body mismatch: %v", gotBody)
	}
	if res.Answer != "Stratification organizes society into layers." {
		t.Fatalf("answer mismatch: %q", res.Answer)
	}
	if len(res.Sources) != 1 || res.Sources[0].DocumentID != "d1" || res.Sources[0].Title != "Ch3" {
		t.Fatalf("sources mismatch: %+v", res.Sources)
	}
}

func TestAskNonSuccessBodyBecomesErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Ask(context.Background(), "proj-1", "x")
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "internal error" {
		t.Fatalf("error detail: want=%q got=%q", "internal error", err.Error())
	}
}

func TestAskNonSuccessEmptyBodyFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Ask(context.Background(), "proj-1", "x")
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() == "" {
		t.Fatalf("expected non-empty error detail")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
