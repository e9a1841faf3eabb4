package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingHandler collects slog.Records for test assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
	delay   time.Duration
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func TestAsyncHandler_ConcurrentWrites(t *testing.T) {
	const goroutines = 50
	const perGoroutine = 100

	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, goroutines*perGoroutine, 4)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				_ = ah.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "concurrent", 0))
			}
		}()
	}
	wg.Wait()
	ah.Close()

	if got := inner.count(); got != goroutines*perGoroutine {
		t.Fatalf("expected %d records, got %d", goroutines*perGoroutine, got)
	}
}

func TestAsyncHandler_FullQueueDrops(t *testing.T) {
	inner := &recordingHandler{delay: 10 * time.Millisecond}
	ah := NewAsyncHandler(inner, 1, 1)

	for range 50 {
		_ = ah.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "flood", 0))
	}
	ah.Close()

	dropped := ah.DroppedCount()
	if dropped == 0 {
		t.Fatal("expected some records to be dropped, got 0")
	}
	if got := int64(inner.count()) + dropped; got != 50 {
		t.Fatalf("written+dropped = %d, want 50", got)
	}
}

func TestAsyncHandler_DerivedHandlersKeepAttrs(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewJSONHandler(&buf, nil), 16, 1)
	l := slog.New(ah).With("component", "triage")

	ctx, cancel := context.WithCancel(context.Background())
	l.InfoContext(ctx, "review escalated")
	cancel()
	ah.Close()

	out := buf.String()
	if !strings.Contains(out, `"component":"triage"`) {
		t.Fatalf("derived attribute missing: %q", out)
	}
	if !strings.Contains(out, `"msg":"review escalated"`) {
		t.Fatalf("record missing after context cancel: %q", out)
	}
}

func TestAsyncHandler_CloseTwice(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 8, 2)
	_ = ah.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "once", 0))
	ah.Close()
	ah.Close()
	if got := inner.count(); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
}
