package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"broksum/internal/api"
)

func TestFetchReturnsBody(t *testing.T) {
	page := `<html><body><table class="table"><tbody><tr><td>AK</td></tr></tbody></table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected User-Agent header")
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	s := NewScraper(5 * time.Second)
	body, err := s.Fetch(context.Background(), srv.URL+"/summary")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != page {
		t.Errorf("body = %q", body)
	}

	// same URL twice is allowed
	if _, err := s.Fetch(context.Background(), srv.URL+"/summary"); err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewScraper(5*time.Second).Fetch(context.Background(), srv.URL)
	var fe *api.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *api.FetchError", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScraper(time.Second).Fetch(ctx, "http://127.0.0.1:1/")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFetchAbortsSlowRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewScraper(10*time.Second).Fetch(ctx, srv.URL)
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Fetch returned after %v, want it cut short by the context", elapsed)
	}
}
