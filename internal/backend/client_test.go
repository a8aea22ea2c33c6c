package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
)

func newTestClient(url string) *Client {
	c := NewClient(Config{BaseURL: url + "/", Token: "secret-token", Timeout: 2 * time.Second})
	c.backoff = time.Millisecond
	return c
}

func TestNewClientDisabledWithoutURL(t *testing.T) {
	if c := NewClient(Config{}); c != nil {
		t.Error("expected nil client without base URL")
	}
}

func TestFetchFlight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/flights/TG550" {
			t.Errorf("path = %q, want /api/flights/TG550", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("authorization = %q", got)
		}
		json.NewEncoder(w).Encode(model.Flight{Number: "TG550", Airline: "Thai Airways", Miles: 900})
	}))
	defer server.Close()

	f, err := newTestClient(server.URL).FetchFlight(context.Background(), "TG550")
	if err != nil {
		t.Fatalf("fetch flight: %v", err)
	}
	if f.Airline != "Thai Airways" || f.Miles != 900 {
		t.Errorf("unexpected flight %+v", f)
	}
}

func TestFetchFlightNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchFlight(context.Background(), "ZZ999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (404 is not retried)", calls.Load())
	}
}

func TestFetchFlightRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(model.Flight{Number: "VN123", Miles: 2500})
	}))
	defer server.Close()

	f, err := newTestClient(server.URL).FetchFlight(context.Background(), "VN123")
	if err != nil {
		t.Fatalf("fetch flight: %v", err)
	}
	if f.Miles != 2500 {
		t.Errorf("miles = %d, want 2500", f.Miles)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetchFlightClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchFlight(context.Background(), "VN123"); err == nil {
		t.Error("expected error on 401")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
