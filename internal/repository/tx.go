package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/sirupsen/logrus"
)

const retryBaseDelay = 10 * time.Millisecond

// retryTx runs attempt until it succeeds, fails with a non-retryable error, or
// the attempt budget is spent. The last storage error is reported as ErrTransient.
func retryTx(ctx context.Context, attempts int, attempt func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = attempt()
		if !isRetryable(err) {
			return translate(err)
		}
		if i == attempts-1 {
			break
		}
		logger.Log.WithFields(logrus.Fields{"attempt": i + 1, "error": err}).Debug("booking transaction aborted, retrying")

		delay := retryBaseDelay*time.Duration(i+1) + rand.N(retryBaseDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%w: transaction aborted %d times: %v", domain.ErrTransient, attempts, err)
}
