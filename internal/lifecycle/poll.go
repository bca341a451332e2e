// Copyright 2025 Tom Barlow
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

package lifecycle

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPollTimeout is returned by Poll when the condition did not hold
	// before the wait budget ran out.
	ErrPollTimeout = errors.New("poll timeout exceeded")

	// ErrRetryExhausted is returned by Retry when every attempt failed.
	ErrRetryExhausted = errors.New("retry budget exhausted")
)

// Clock abstracts time so waits can be driven by tests.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in
	// the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is cancelled.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Condition is evaluated by Poll. Returning true stops polling; a non-nil
// error aborts it and is returned as is.
type Condition func(ctx context.Context) (bool, error)

// Poll evaluates cond immediately and then every interval until it holds.
// After each failed evaluation the elapsed time is compared with maxWait;
// once it exceeds maxWait, Poll gives up with ErrPollTimeout.
func Poll(ctx context.Context, clock Clock, interval, maxWait time.Duration, cond Condition) error {
	start := clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if clock.Now().Sub(start) > maxWait {
			return ErrPollTimeout
		}

		if err := clock.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// Attempt is one try of a Retry loop. attempt starts at 1.
type Attempt func(ctx context.Context, attempt int) (bool, error)

// Retry runs fn up to attempts times with a fixed delay between tries and
// no delay after the last one. The first success wins. An error from fn
// aborts the loop and is returned as is.
func Retry(ctx context.Context, clock Clock, attempts int, delay time.Duration, fn Attempt) error {
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := fn(ctx, attempt)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if attempt < attempts {
			if err := clock.Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return ErrRetryExhausted
}
