// Package worker consumes queued document exports.
package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/models/documents"
	"careerhub-backend/services/events"
	"careerhub-backend/services/export"
)

const DefaultAttempts = 3

// Processor runs one export attempt. Fail records the final failure once
// the attempts are used up.
type Processor interface {
	Process(ctx context.Context, id string) (*documents.Export, error)
	Fail(ctx context.Context, id string, cause error) error
}

// Pool runs a fixed number of goroutines over one delivery channel.
type Pool struct {
	processor   Processor
	concurrency int
	attempts    int
	backoff     func(attempt int) time.Duration
	logger      *zap.SugaredLogger
}

func NewPool(p Processor, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		processor:   p,
		concurrency: concurrency,
		attempts:    DefaultAttempts,
		backoff:     func(i int) time.Duration { return time.Duration(500*(i+1)) * time.Millisecond },
		logger:      logger.ComponentLogger("worker"),
	}
}

// Consume opens a channel on conn and runs the pool over the export queue
// until ctx is cancelled.
func (p *Pool) Consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open rabbitmq channel")
	}
	defer ch.Close()

	if err := events.Declare(ch); err != nil {
		return err
	}
	if err := ch.Qos(p.concurrency, 0, false); err != nil {
		return errors.Wrap(err, "set prefetch")
	}
	msgs, err := ch.Consume(events.ExportQueue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume export queue")
	}
	p.logger.Infow("consuming", "queue", events.ExportQueue, "workers", p.concurrency)
	return p.Run(ctx, msgs)
}

// Run blocks until ctx is cancelled or deliveries is closed, then waits for
// in-flight jobs.
func (p *Pool) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	var wg sync.WaitGroup
	wg.Add(p.concurrency)
	for i := 0; i < p.concurrency; i++ {
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					p.handle(ctx, id, d)
				}
			}
		}(i + 1)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (p *Pool) handle(ctx context.Context, workerID int, d amqp.Delivery) {
	var job export.Job
	if err := json.Unmarshal(d.Body, &job); err != nil || job.ExportID == "" {
		p.logger.Warnw("dropping malformed job", "worker", workerID, logger.FieldError, err)
		_ = d.Nack(false, false)
		return
	}

	log := p.logger.With("worker", workerID, logger.FieldExportID, job.ExportID)
	start := time.Now()
	_, err := retry(ctx, p.attempts, p.backoff, func() error {
		_, err := p.processor.Process(ctx, job.ExportID)
		return err
	})
	switch {
	case err != nil && ctx.Err() != nil:
		// Shutting down: hand the job to another consumer.
		log.Warnw("export job interrupted", logger.FieldError, err)
		if err := d.Nack(false, true); err != nil {
			log.Warnw("nack", logger.FieldError, err)
		}
		return
	case err != nil:
		log.Errorw("export job failed", logger.FieldError, err)
		if ferr := p.processor.Fail(ctx, job.ExportID, err); ferr != nil {
			log.Warnw("record export failure", logger.FieldError, ferr)
		}
	default:
		log.Infow("export job done", logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
	// The export row records the outcome, so the message is done either way.
	if err := d.Ack(false); err != nil {
		log.Warnw("ack", logger.FieldError, err)
	}
}

// permanent errors are not worth another attempt.
func permanent(err error) bool {
	return errors.IsAny(err, errors.ErrNotFound, errors.ErrInvalidRequest, context.Canceled)
}

// retry calls fn up to attempts times, sleeping between tries, and returns
// the number of attempts made.
func retry(ctx context.Context, attempts int, backoff func(int) time.Duration, fn func() error) (int, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = fn()
		if lastErr == nil || permanent(lastErr) {
			return i + 1, lastErr
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return i + 1, errors.CombineErrors(lastErr, ctx.Err())
		case <-time.After(backoff(i)):
		}
	}
	return attempts, errors.Wrapf(lastErr, "after %d attempts", attempts)
}
