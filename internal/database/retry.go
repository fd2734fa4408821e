package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Retry policy for transient infrastructure errors at the query layer.
// Business-rule failures (conflicts, not-found) are terminal and must never
// be retried; only connection-level faults qualify.
const (
	maxAttempts    = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// IsTransient reports whether err is worth retrying: a dropped or refused
// connection, an I/O timeout, a DNS hiccup, or InnoDB lock contention that
// MySQL asks the client to restart.  Context cancellation is the caller
// giving up, not the infrastructure failing, so it is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// InnoDB deadlocks (1213) and lock wait timeouts (1205) are the normal
	// loser outcome of competing row-lock transactions; MySQL itself says
	// "try restarting transaction", and the rerun resolves against the
	// winner's committed state.
	for _, probe := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"invalid connection",
		"deadlock found",
		"lock wait timeout",
	} {
		if strings.Contains(msg, probe) {
			return true
		}
	}
	return false
}

// WithRetry runs fn up to maxAttempts times, doubling the backoff between
// attempts, while fn keeps failing with a transient error.  The last error
// is returned unchanged so callers can still match sentinels with errors.Is.
func WithRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).
			Dur("backoff", backoff).Msg("transient database error, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return err
}
