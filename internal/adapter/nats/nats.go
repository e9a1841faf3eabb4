// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/seogov/internal/logger"
	"github.com/Strob0t/seogov/internal/port/messagequeue"
)

const (
	headerRequestID  = "X-Request-ID"
	headerCycleID    = "X-Cycle-ID"
	headerRetryCount = "Retry-Count"
	headerDLQReason  = "DLQ-Reason"

	dlqSuffix         = ".dlq"
	defaultStream     = "SEOGOV"
	defaultMaxRetries = 3
)

// Option configures Connect.
type Option func(*Queue)

// WithStream sets the JetStream stream name.
func WithStream(name string) Option {
	return func(q *Queue) {
		if name != "" {
			q.stream = name
		}
	}
}

// WithMaxRetries sets how many times a failing message is redelivered
// before it is moved to the dead letter subject.
func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.maxRetries = n
		}
	}
}

// WithLogger sets the logger for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.log = l
		}
	}
}

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc         *nats.Conn
	js         jetstream.JetStream
	stream     string
	maxRetries int
	log        *slog.Logger
}

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string, opts ...Option) (*Queue, error) {
	q := &Queue{stream: defaultStream, maxRetries: defaultMaxRetries, log: slog.Default()}
	for _, o := range opts {
		o(q)
	}

	nc, err := nats.Connect(url,
		nats.Name("seogov"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				q.log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			q.log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     q.stream,
		Subjects: messagequeue.StreamSubjects,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	q.nc, q.js = nc, js
	q.log.Info("nats connected", "url", url, "stream", q.stream)
	return q, nil
}

// Publish sends a message to the given subject. Request and cycle IDs in
// ctx travel as headers.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set(headerRequestID, id)
	}
	if id := logger.CycleID(ctx); id != "" {
		msg.Header.Set(headerCycleID, id)
	}
	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a handler for messages on the given subject using a
// durable consumer, so instances share the work and restarts resume where
// they stopped. Messages failing validation go straight to subject.dlq;
// handler failures are retried up to the configured limit first.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, q.stream, jetstream.ConsumerConfig{
		Durable:       consumerName(subject),
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		q.handle(msg, handler)
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}
	return cons.Stop, nil
}

func (q *Queue) handle(msg jetstream.Msg, handler messagequeue.Handler) {
	ctx := context.Background()
	hdrs := msg.Headers()
	if id := hdrs.Get(headerRequestID); id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}
	if id := hdrs.Get(headerCycleID); id != "" {
		ctx = logger.WithCycleID(ctx, id)
	}

	if err := messagequeue.Validate(msg.Subject(), msg.Data()); err != nil {
		q.log.WarnContext(ctx, "invalid message", "subject", msg.Subject(), "error", err)
		q.moveToDLQ(ctx, msg, err)
		return
	}

	err := handler(ctx, msg.Subject(), msg.Data())
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			q.log.ErrorContext(ctx, "nats ack failed", "error", ackErr)
		}
		return
	}

	attempt := retryCount(hdrs)
	q.log.ErrorContext(ctx, "message handler failed", "subject", msg.Subject(), "attempt", attempt, "error", err)
	if attempt >= q.maxRetries {
		q.moveToDLQ(ctx, msg, err)
		return
	}
	q.retry(ctx, msg, attempt+1)
}

// retry republishes the message with an incremented retry header and acks
// the original, so the count survives redelivery.
func (q *Queue) retry(ctx context.Context, msg jetstream.Msg, attempt int) {
	out := &nats.Msg{Subject: msg.Subject(), Data: msg.Data(), Header: cloneHeader(msg.Headers())}
	out.Header.Set(headerRetryCount, strconv.Itoa(attempt))
	if _, err := q.js.PublishMsg(ctx, out); err != nil {
		q.log.ErrorContext(ctx, "nats retry publish failed", "subject", msg.Subject(), "error", err)
		_ = msg.NakWithDelay(time.Second)
		return
	}
	if err := msg.Ack(); err != nil {
		q.log.ErrorContext(ctx, "nats ack failed", "error", err)
	}
}

func (q *Queue) moveToDLQ(ctx context.Context, msg jetstream.Msg, reason error) {
	out := &nats.Msg{Subject: msg.Subject() + dlqSuffix, Data: msg.Data(), Header: cloneHeader(msg.Headers())}
	out.Header.Set(headerDLQReason, reason.Error())
	if _, err := q.js.PublishMsg(ctx, out); err != nil {
		q.log.ErrorContext(ctx, "nats dlq publish failed", "subject", out.Subject, "error", err)
		_ = msg.Nak()
		return
	}
	if err := msg.Term(); err != nil {
		q.log.ErrorContext(ctx, "nats term failed", "error", err)
	}
}

// KeyValue returns (creating if needed) a KV bucket whose entries expire after ttl.
func (q *Queue) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := q.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("nats kv %s: %w", bucket, err)
	}
	return kv, nil
}

// Drain processes in-flight messages, then closes the connection.
func (q *Queue) Drain() error {
	if err := q.nc.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

func (q *Queue) IsConnected() bool {
	return q.nc != nil && q.nc.IsConnected()
}

func retryCount(h nats.Header) int {
	n, err := strconv.Atoi(h.Get(headerRetryCount))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func cloneHeader(h nats.Header) nats.Header {
	out := nats.Header{}
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// consumerName derives a durable consumer name from a subject; consumer
// names may not contain dots or wildcards.
func consumerName(subject string) string {
	r := strings.NewReplacer(".", "_", "*", "star", ">", "all")
	return "seogov_" + r.Replace(subject)
}
