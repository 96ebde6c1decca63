package garmin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrCredentialsExpired indicates the remote service rejected the stored
// credentials as revoked or expired. Not retryable: the operator has to
// reissue tokens before the next run.
var ErrCredentialsExpired = errors.New("garmin credentials expired or revoked")

// Session is a verified client handle scoped to one sync run. It carries
// the resolved display name that date-scoped wellness URLs require, and is
// only ever used from a single flow at a time (the pipeline is sequential
// by design of the remote rate limit).
type Session struct {
	client      Client
	displayName string
}

// Client returns the underlying remote client.
func (s *Session) Client() Client {
	return s.client
}

// DisplayName returns the user-scoping token resolved during verification.
func (s *Session) DisplayName() string {
	return s.displayName
}

// Establish verifies the client's credentials with a lightweight profile
// call and returns a ready session. Auth rejections surface as
// ErrCredentialsExpired; any other failure is transient and may be retried
// by the caller.
func Establish(ctx context.Context, client Client) (*Session, error) {
	doc, err := client.SocialProfile(ctx)
	if err != nil {
		if IsAuthError(err) {
			return nil, fmt.Errorf("%w: %v", ErrCredentialsExpired, err)
		}
		return nil, fmt.Errorf("session verification failed: %w", err)
	}

	name, ok := DigString(doc, "displayName")
	if !ok || name == "" {
		return nil, fmt.Errorf("session verification failed: profile response has no displayName")
	}

	return &Session{client: client, displayName: name}, nil
}

// EstablishWithRetry wraps Establish with bounded attempts and pacing for
// transient failures. Expired credentials abort immediately.
func EstablishWithRetry(ctx context.Context, client Client, attempts int, pause time.Duration, logger *zap.Logger) (*Session, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		session, err := Establish(ctx, client)
		if err == nil {
			return session, nil
		}
		if errors.Is(err, ErrCredentialsExpired) {
			return nil, err
		}
		lastErr = err

		logger.Warn("session verification failed, will retry",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pause):
			}
		}
	}

	return nil, fmt.Errorf("session verification failed after %d attempts: %w", attempts, lastErr)
}
