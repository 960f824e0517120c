package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

type recordingService struct {
	name     string
	startErr error
	block    bool

	mu    *sync.Mutex
	stops *[]string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *recordingService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.stops = append(*s.stops, s.name)
	return nil
}

func TestRunnerStopsInReverseOrder(t *testing.T) {
	var mu sync.Mutex
	var stops []string
	boom := errors.New("boom")
	runner := NewRunner(
		&recordingService{name: "http", block: true, mu: &mu, stops: &stops},
		&recordingService{name: "sweeper", block: true, mu: &mu, stops: &stops},
		&recordingService{name: "worker", startErr: boom, mu: &mu, stops: &stops},
	)

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("failing service error should be returned, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(stops) != "[worker sweeper http]" {
		t.Fatalf("unexpected stop order: %v", stops)
	}
}

func TestRunnerContextCancelIsClean(t *testing.T) {
	var mu sync.Mutex
	var stops []string
	runner := NewRunner(&recordingService{name: "http", block: true, mu: &mu, stops: &stops})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if got := runner.Names(); len(got) != 1 || got[0] != "http" {
		t.Fatalf("unexpected names: %v", got)
	}
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
}

func TestHTTPServiceServesAndStops(t *testing.T) {
	svc := NewHTTPService("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for svc.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatalf("http service did not start listening")
		}
		time.Sleep(10 * time.Millisecond)
	}
	resp, err := http.Get("http://" + svc.Addr() + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("start should return nil after shutdown, got %v", err)
	}
}

func TestNormalizeOptionsAndMode(t *testing.T) {
	opts := normalizeOptions(Options{Mode: "  API "})
	if opts.Mode != ModeAPI || opts.Logger == nil || opts.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected normalized options: %+v", opts)
	}
	if normalizeOptions(Options{}).Mode != ModeAll {
		t.Fatalf("empty mode should default to all")
	}
	if err := validateMode("cron"); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
	if err := Run(Options{Mode: ModeAPI}); err == nil {
		t.Fatalf("missing config should fail")
	}
}
