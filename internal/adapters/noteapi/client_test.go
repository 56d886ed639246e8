package noteapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const batchJSON = `{
	"documents": [
		{
			"id": "d1",
			"title": "Weekly Planning",
			"created_at": "2024-01-02T08:00:00Z",
			"updated_at": "2024-01-02T18:00:00Z",
			"content_md": "# Plan",
			"content_text": "Plan"
		}
	]
}`

func TestFetchDocuments(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/documents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(batchJSON))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "secret"})
	docs, err := c.FetchDocuments(context.Background())
	if err != nil {
		t.Fatalf("FetchDocuments failed: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	doc := docs[0]
	if doc.ID != "d1" || doc.Title != "Weekly Planning" {
		t.Errorf("unexpected document %+v", doc)
	}
	content, ok := doc.BestContent()
	if !ok || content.Body != "# Plan" {
		t.Errorf("expected markdown rendering first, got %+v", content)
	}
	want := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	if !doc.UpdatedAt.Equal(want) {
		t.Errorf("expected updated %v, got %v", want, doc.UpdatedAt)
	}
}

func TestFetchDocuments_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(batchJSON))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "t", MaxElapsed: 10 * time.Second})
	docs, err := c.FetchDocuments(context.Background())
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
	if calls.Load() < 3 {
		t.Errorf("expected at least 3 attempts, got %d", calls.Load())
	}
}

func TestFetchDocuments_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "bad", MaxElapsed: 10 * time.Second})
	if _, err := c.FetchDocuments(context.Background()); err == nil {
		t.Fatal("expected an error for 401")
	}
	if calls.Load() != 1 {
		t.Errorf("client errors must not be retried, saw %d attempts", calls.Load())
	}
}
