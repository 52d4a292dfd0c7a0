package flags

import (
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryWithBackoff retries transient SQLite contention (SQLITE_BUSY, "database is locked")
// from concurrent hook processes. Budgets are short: a lost flag write only costs one recall.
func retryWithBackoff(operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = time.Second
	b.RandomizationFactor = 0.1

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if isBusyError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}

// isBusyError relies on modernc.org/sqlite error message strings.
func isBusyError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
