package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

// ConnectWithRetry attempts Connect a bounded number of times with a
// fixed delay between attempts. Retry is deliberately a caller-side
// policy, this helper just packages the typical one. A rejected
// authentication is returned immediately: the server will not change
// its mind.
func (c *Client) ConnectWithRetry(ctx context.Context, profile domain.Profile, attempts int, delay time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = c.Connect(profile); err == nil {
			return nil
		}
		if errors.Is(err, errs.ErrRejected) {
			return err
		}
		c.log.Warn("Connect attempt failed", "attempt", attempt, "of", attempts, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
