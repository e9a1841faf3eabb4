package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes and stops background logging.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// entry pairs a record with the values of the context it was logged under.
// The context is detached from cancellation so a finished request does not
// lose its trailing records.
type entry struct {
	ctx context.Context
	rec slog.Record
}

// AsyncHandler hands records to a fixed set of writer goroutines through a
// bounded queue. Records that do not fit are dropped and counted.
type AsyncHandler struct {
	inner  slog.Handler
	shared *asyncShared
}

type asyncShared struct {
	ch      chan entry
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
}

// NewAsyncHandler starts workers writers draining a queue of size chanSize.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	s := &asyncShared{ch: make(chan entry, chanSize)}
	for range workers {
		s.wg.Add(1)
		go s.drain()
	}
	return &AsyncHandler{inner: inner, shared: s}
}

// drain writes through the handler the record was enqueued with, so derived
// handlers keep their attributes.
func (s *asyncShared) drain() {
	defer s.wg.Done()
	for e := range s.ch {
		h, _ := e.ctx.Value(handlerKey{}).(slog.Handler)
		if h == nil {
			continue
		}
		_ = h.Handle(e.ctx, e.rec)
	}
}

type handlerKey struct{}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. It never blocks.
func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if ctx == nil {
		ctx = context.Background()
	}
	e := entry{
		ctx: context.WithValue(context.WithoutCancel(ctx), handlerKey{}, h.inner),
		rec: rec.Clone(),
	}
	select {
	case h.shared.ch <- e:
	default:
		h.shared.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), shared: h.shared}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), shared: h.shared}
}

// DroppedCount returns the number of records lost to a full queue.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.shared.dropped.Load()
}

// Close stops accepting records and waits for the queue to drain. Safe to call twice.
func (h *AsyncHandler) Close() {
	h.shared.once.Do(func() {
		close(h.shared.ch)
	})
	h.shared.wg.Wait()
}
