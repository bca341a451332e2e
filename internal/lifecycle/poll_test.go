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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/emuhelper/internal/testing/mock"
)

func TestPoll(t *testing.T) {
	t.Run("returns immediately when condition holds", func(t *testing.T) {
		clock := mock.NewClock()
		calls := 0

		err := Poll(context.Background(), clock, time.Second, 10*time.Second, func(context.Context) (bool, error) {
			calls++
			return true, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, clock.Sleeps())
	})

	t.Run("polls at the interval until the condition holds", func(t *testing.T) {
		clock := mock.NewClock()
		calls := 0

		err := Poll(context.Background(), clock, time.Second, 10*time.Second, func(context.Context) (bool, error) {
			calls++
			return calls == 4, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 4, calls)
		assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, clock.Sleeps())
	})

	t.Run("times out once elapsed exceeds max wait", func(t *testing.T) {
		clock := mock.NewClock()
		calls := 0

		err := Poll(context.Background(), clock, 5*time.Second, 300*time.Second, func(context.Context) (bool, error) {
			calls++
			return false, nil
		})

		assert.ErrorIs(t, err, ErrPollTimeout)
		// Polls at 0, 5, ..., 300 and one more at 305.
		assert.Equal(t, 62, calls)
		assert.Equal(t, 305*time.Second, clock.Elapsed())
	})

	t.Run("condition error aborts", func(t *testing.T) {
		clock := mock.NewClock()
		boom := errors.New("boom")

		err := Poll(context.Background(), clock, time.Second, time.Minute, func(context.Context) (bool, error) {
			return false, boom
		})

		assert.ErrorIs(t, err, boom)
		assert.Empty(t, clock.Sleeps())
	})

	t.Run("cancelled context stops between polls", func(t *testing.T) {
		clock := mock.NewClock()
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0

		err := Poll(ctx, clock, time.Second, time.Minute, func(context.Context) (bool, error) {
			calls++
			if calls == 2 {
				cancel()
			}
			return false, nil
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, calls)
	})
}

func TestRetry(t *testing.T) {
	t.Run("first success wins without exhausting the budget", func(t *testing.T) {
		clock := mock.NewClock()
		var seen []int

		err := Retry(context.Background(), clock, 10, 3*time.Second, func(_ context.Context, attempt int) (bool, error) {
			seen = append(seen, attempt)
			return attempt == 2, nil
		})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, seen)
		assert.Equal(t, []time.Duration{3 * time.Second}, clock.Sleeps())
	})

	t.Run("exhausts the budget with no trailing sleep", func(t *testing.T) {
		clock := mock.NewClock()
		calls := 0

		err := Retry(context.Background(), clock, 10, 3*time.Second, func(context.Context, int) (bool, error) {
			calls++
			return false, nil
		})

		assert.ErrorIs(t, err, ErrRetryExhausted)
		assert.Equal(t, 10, calls)
		assert.Len(t, clock.Sleeps(), 9)
		for _, d := range clock.Sleeps() {
			assert.Equal(t, 3*time.Second, d)
		}
	})

	t.Run("error aborts", func(t *testing.T) {
		clock := mock.NewClock()
		boom := errors.New("scan failed")
		calls := 0

		err := Retry(context.Background(), clock, 10, time.Second, func(context.Context, int) (bool, error) {
			calls++
			return false, boom
		})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}

func TestRealClock_SleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RealClock{}.Sleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
