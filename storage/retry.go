// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Errors for which retryable returns false end the loop immediately.
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration, retryable func(error) bool) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		if attempt == maxAttempts {
			break
		}

		// baseDelay * 2^(attempt-1)
		delay := baseDelay << (attempt - 1)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// isTransient reports whether a blob store error is worth retrying.
func isTransient(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrStorageClosed) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// RetryingBlobStore decorates a BlobStore with retry and exponential backoff.
// Not-found and closed-store errors are returned without retrying.
type RetryingBlobStore struct {
	inner       BlobStore
	maxAttempts int
	baseDelay   time.Duration
}

var _ BlobStore = (*RetryingBlobStore)(nil)

// NewRetryingBlobStore wraps inner. maxAttempts below 1 is treated as 1.
func NewRetryingBlobStore(inner BlobStore, maxAttempts int, baseDelay time.Duration) *RetryingBlobStore {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingBlobStore{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

func (r *RetryingBlobStore) do(ctx context.Context, op func() error) error {
	return RetryWithBackoff(ctx, op, r.maxAttempts, r.baseDelay, isTransient)
}

func (r *RetryingBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.do(ctx, func() error {
		var err error
		exists, err = r.inner.Exists(ctx, key)
		return err
	})
	return exists, err
}

func (r *RetryingBlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.do(ctx, func() error {
		var err error
		data, err = r.inner.Read(ctx, key)
		return err
	})
	return data, err
}

func (r *RetryingBlobStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	return r.do(ctx, func() error {
		return r.inner.Write(ctx, key, data, contentType)
	})
}

// CreateIfAbsent is not retried: a lost response after a successful create
// would turn into a false "already exists" on the next attempt.
func (r *RetryingBlobStore) CreateIfAbsent(ctx context.Context, key string, data []byte, contentType string) (bool, error) {
	return r.inner.CreateIfAbsent(ctx, key, data, contentType)
}

func (r *RetryingBlobStore) Delete(ctx context.Context, key string) error {
	return r.do(ctx, func() error {
		return r.inner.Delete(ctx, key)
	})
}

func (r *RetryingBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := r.do(ctx, func() error {
		var err error
		keys, err = r.inner.List(ctx, prefix)
		return err
	})
	return keys, err
}

func (r *RetryingBlobStore) Close() error {
	return r.inner.Close()
}
