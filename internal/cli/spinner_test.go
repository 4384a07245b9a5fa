package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

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

func TestSpinnerAnimates(t *testing.T) {
	var out syncBuffer
	s := newSpinner("Rendering...")
	s.w, s.animate = &out, true
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Update("Writing")
	s.Stop()

	if !strings.Contains(out.String(), "Rendering...") {
		t.Errorf("spinner output %q does not contain the message", out.String())
	}
	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop")
	}
}

func TestSpinnerQuietWithoutTerminal(t *testing.T) {
	var out syncBuffer
	s := newSpinner("Rendering...")
	s.w, s.animate = &out, false
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if out.String() != "" {
		t.Errorf("spinner wrote %q without a terminal", out.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.w = &syncBuffer{}
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

	s := newSpinnerWithContext(ctx, "Testing with timeout...")
	s.w = &syncBuffer{}
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Testing idempotent stop...")
	s.w = &syncBuffer{}
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}
