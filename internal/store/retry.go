package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsBusyError reports whether err is a SQLite concurrency error
// (SQLITE_BUSY or SQLITE_LOCKED) that is worth retrying.
func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// withBusyRetry runs op, retrying with exponential backoff while it fails
// with a busy error.
func withBusyRetry(ctx context.Context, attempts int, baseDelay time.Duration, op func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = op()
		if err == nil || !IsBusyError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("database busy, retrying", "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
