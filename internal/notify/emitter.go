// Package notify moves booking events out of the request path. The API side
// publishes them after commit, the worker side turns them into e-mails.
package notify

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/sirupsen/logrus"
)

// Publisher is a broker client; kafka.Producer and queue.Publisher satisfy it.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// AsyncEmitter publishes every event on its own goroutine with a bounded
// timeout. Failures are logged and never reach the caller.
type AsyncEmitter struct {
	publisher Publisher
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewAsyncEmitter(publisher Publisher, timeout time.Duration) *AsyncEmitter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AsyncEmitter{publisher: publisher, timeout: timeout}
}

func (e *AsyncEmitter) Emit(ctx context.Context, event domain.BookingEvent) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		if err := e.publisher.Publish(ctx, strconv.FormatInt(event.BookingID, 10), event); err != nil {
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"booking_id": event.BookingID,
				"event_id":   event.ID,
				"kind":       event.Kind,
			}).Warn("failed to publish booking event")
		}
	}()
}

// Close waits for in-flight publishes and closes the publisher.
func (e *AsyncEmitter) Close() error {
	e.wg.Wait()
	return e.publisher.Close()
}

// NopEmitter drops events. Used when notifications are disabled.
type NopEmitter struct{}

func (NopEmitter) Emit(ctx context.Context, event domain.BookingEvent) {
	logger.Log.WithFields(logrus.Fields{"booking_id": event.BookingID, "kind": event.Kind}).Debug("notifications disabled, event dropped")
}

func (NopEmitter) Close() error { return nil }
