package client

import (
	"context"
	"time"

	"livepoll/internal/model"
)

// Countdown invokes fn once per second with the remaining time derived
// purely from the local wall clock and the poll's startTime/duration,
// independent of any server tick. It returns when the countdown reaches
// zero or ctx is done. Bounded clock skew is tolerated, not corrected.
func Countdown(ctx context.Context, startTime time.Time, duration int, fn func(remaining int)) {
	poll := model.Poll{StartTime: startTime, Duration: duration}

	remaining := poll.RemainingAt(time.Now())
	fn(remaining)
	if remaining <= 0 {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining = poll.RemainingAt(time.Now())
			fn(remaining)
			if remaining <= 0 {
				return
			}
		}
	}
}
