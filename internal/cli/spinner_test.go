package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerBasic(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Testing...")
	s.enabled = true
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(out.String(), "Testing...") {
		t.Errorf("spinner output %q does not contain the message", out.String())
	}
	if !s.Cancelled() {
		t.Error("Cancelled() should be true after Stop")
	}
}

func TestSpinnerDisabledWritesNothing(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Quiet")
	if s.enabled {
		t.Fatal("spinner should be disabled for a non-terminal writer")
	}
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
	if out.String() != "" {
		t.Errorf("disabled spinner wrote %q", out.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinner(ctx, &syncBuffer{}, "Testing with context...")
	s.Start()

	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinner(ctx, &syncBuffer{}, "Testing with timeout...")
	s.Start()

	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerHooks(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Rendering...")
	h := spinnerHooks{spinner: s}
	ctx := context.Background()

	h.OnLayoutComplete(ctx, "p", 12, false, 0)
	if got := s.Message(); got != "Picking variants for 12 glyphs..." {
		t.Errorf("after layout Message() = %q", got)
	}
	h.OnPickComplete(ctx, "p", 12, 0, 0)
	if got := s.Message(); got != "Drawing page..." {
		t.Errorf("after pick Message() = %q", got)
	}
	h.OnExportComplete(ctx, "p", "pdf", 100, 0, nil)
	if got := s.Message(); got != "Exported pdf..." {
		t.Errorf("after export Message() = %q", got)
	}
}
