// Package events publishes domain events and export jobs over AMQP.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"careerhub-backend/errors"
)

const (
	Exchange    = "careerhub.events"
	ExportQueue = "document_exports"

	JobStatusChanged = "job.status_changed"
	ExportCompleted  = "export.completed"
	ExportFailed     = "export.failed"
)

// Event is the envelope of every published message.
type Event struct {
	Type      string      `json:"type"`
	UserID    uint        `json:"user_id"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Broker publishes events to the topic exchange and jobs to work queues.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Enqueue(ctx context.Context, queue string, payload interface{}) error
	// Queues reports whether Enqueue reaches a consumer.
	Queues() bool
	Close() error
}

// Noop drops events. Used when no broker is configured.
type Noop struct {
	Logger *zap.SugaredLogger
}

func (n Noop) Publish(_ context.Context, ev Event) error {
	if n.Logger != nil {
		n.Logger.Debugw("event dropped, no broker configured", "type", ev.Type)
	}
	return nil
}

func (Noop) Enqueue(context.Context, string, interface{}) error {
	return errors.Wrap(errors.ErrServiceUnavailable, "no message broker configured")
}

func (Noop) Queues() bool { return false }

func (Noop) Close() error { return nil }

// AMQP is a Broker backed by RabbitMQ. Channels are not safe for concurrent
// publishing, so a mutex guards the shared one.
type AMQP struct {
	conn   *amqp.Connection
	mu     sync.Mutex
	ch     *amqp.Channel
	logger *zap.SugaredLogger
}

// Dial connects to url and declares the exchange and export queue.
func Dial(url string, logger *zap.SugaredLogger) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open rabbitmq channel")
	}
	if err := Declare(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &AMQP{conn: conn, ch: ch, logger: logger}, nil
}

// Declare sets up the topology both the API and the worker rely on.
func Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare exchange")
	}
	if _, err := ch.QueueDeclare(ExportQueue, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare export queue")
	}
	return nil
}

// Connection exposes the connection so the worker can open its own channel.
func (a *AMQP) Connection() *amqp.Connection { return a.conn }

func (a *AMQP) Publish(_ context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	err = a.ch.Publish(Exchange, ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.Timestamp,
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", ev.Type)
	}
	return nil
}

func (a *AMQP) Enqueue(_ context.Context, queue string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal job")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	err = a.ch.Publish("", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "enqueue to %s", queue)
	}
	return nil
}

func (a *AMQP) Queues() bool { return true }

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ch.Close(); err != nil {
		a.logger.Warnw("close channel", "error", err)
	}
	return a.conn.Close()
}

// New dials url, or returns a Noop broker when url is empty.
func New(url string, logger *zap.SugaredLogger) (Broker, error) {
	if url == "" {
		return Noop{Logger: logger}, nil
	}
	return Dial(url, logger)
}

// Recorder keeps published events in memory. Tests use it in place of a broker.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
	Jobs   []interface{}
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
	return nil
}

func (r *Recorder) Enqueue(_ context.Context, _ string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Jobs = append(r.Jobs, payload)
	return nil
}

func (r *Recorder) Queues() bool { return true }

func (r *Recorder) Close() error { return nil }

// Types returns the types of recorded events in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Type)
	}
	return out
}
