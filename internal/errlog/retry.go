package errlog

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// WithRetry invokes op up to maxRetries times, waiting baseDelay*2^(attempt-1)
// after each failed attempt. The error from the final attempt is returned
// unchanged. A cancelled ctx stops the wait between attempts and returns the
// last failure.
func WithRetry(ctx context.Context, op func(context.Context) error, maxRetries int, baseDelay time.Duration) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}

		delay := baseDelay << (attempt - 1)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

// SafeParse decodes JSON data into a T, returning fallback if data is
// malformed or does not match T.
func SafeParse[T any](data []byte, fallback T) T {
	if len(data) == 0 {
		return fallback
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fallback
	}
	return v
}

// SafeStringify encodes v as JSON, returning fallback when v cannot be
// encoded (channels, functions, unsupported floats).
func SafeStringify(v any, fallback string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fallback
		}
	}()
	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}
