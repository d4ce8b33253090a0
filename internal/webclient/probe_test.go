package webclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raysh454/pagecheck/internal/webclient"
)

func TestWaitReady_SucceedsOnceServerAnswers(t *testing.T) {
	t.Parallel()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, &noopLogger{}, ts.Client())
	err := webclient.WaitReady(context.Background(), client, ts.URL, webclient.ProbeOptions{
		Timeout:  5 * time.Second,
		Interval: 10 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestWaitReady_RedirectCountsAsReady(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/sign-in", http.StatusFound)
	})
	mux.HandleFunc("/sign-in", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, &noopLogger{}, ts.Client())

	err := webclient.WaitReady(context.Background(), client, ts.URL+"/admin", webclient.ProbeOptions{Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
}

func TestWaitReady_TimesOut(t *testing.T) {
	t.Parallel()
	client, _ := webclient.NewNetHTTPClient(webclient.Config{Timeout: 100 * time.Millisecond}, &noopLogger{}, nil)

	start := time.Now()
	err := webclient.WaitReady(context.Background(), client, "http://127.0.0.1:1", webclient.ProbeOptions{
		Timeout:  300 * time.Millisecond,
		Interval: 50 * time.Millisecond,
	}, nil)
	if !errors.Is(err, webclient.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("probe overran its timeout: %s", elapsed)
	}
}
