// Package ratelimit counts per-user actions inside fixed windows and tells
// callers when an action's limit has been reached.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Action names a rate-limited operation.
type Action string

const (
	ActionListingCreation      Action = "listing_creation"
	ActionSponsorshipCreation  Action = "sponsorship_creation"
	ActionOrganizationCreation Action = "organization_creation"
)

// ErrLimitReached is returned by Check when the user has used up the action.
var ErrLimitReached = errors.New("rate limit reached")

// Limiter is the capability services depend on.
type Limiter interface {
	// LimitByAction reports whether the user already reached the limit for action.
	LimitByAction(ctx context.Context, userID uint64, action Action) (bool, error)

	// TrackLimitByAction records one occurrence of action for the user.
	TrackLimitByAction(ctx context.Context, userID uint64, action Action) error
}

// Rule allows Max occurrences per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Rules maps actions to their limits. Actions without a rule are unlimited.
type Rules map[Action]Rule

func (r Rules) lookup(action Action) (Rule, bool) {
	rule, ok := r[action]
	if !ok || rule.Max <= 0 || rule.Window <= 0 {
		return Rule{}, false
	}
	return rule, true
}

// Check returns ErrLimitReached when the limiter reports the action exhausted.
func Check(ctx context.Context, l Limiter, userID uint64, action Action) error {
	reached, err := l.LimitByAction(ctx, userID, action)
	if err != nil {
		return err
	}
	if reached {
		return ErrLimitReached
	}
	return nil
}
