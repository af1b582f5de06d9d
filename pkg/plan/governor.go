package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slidesmith/slidesmith/pkg/observability"
)

// DenialError is a user-facing refusal with a plain-language reason.
// It is never wrapped in an internal failure: callers surface Reason
// directly.
type DenialError struct {
	Reason string
}

func (e *DenialError) Error() string { return e.Reason }

// IsDenial reports whether err is (or wraps) a DenialError.
func IsDenial(err error) bool {
	var de *DenialError
	return errors.As(err, &de)
}

// Reservation records a consumed conversion slot, so a failed run can
// return it through Rollback.
type Reservation struct {
	UserID string
}

// Governor enforces tier limits against a usage store.
type Governor struct {
	Store Store
	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

// CheckAndReserve applies the monthly rollover, checks the free-tier
// limits, and on success consumes one conversion slot. The returned
// reservation lets the caller undo the consumption if the run later
// fails.
//
// requestedSlides <= 0 means "no explicit request" and is not checked
// against the slide cap.
func (g *Governor) CheckAndReserve(ctx context.Context, userID string, tier Tier, rowCount, requestedSlides int) (*Reservation, error) {
	now := g.now()

	// The whole rollover-check-increment cycle runs inside the store's
	// per-user update, so concurrent requests cannot interleave between
	// the read and the write and sneak past the monthly limit.
	err := g.Store.Update(ctx, userID, func(usage *Usage) error {
		if monthChanged(usage.LastReset, now) {
			usage.ConversionsLastMonth = usage.ConversionsThisMonth
			usage.ConversionsThisMonth = 0
			usage.LastReset = monthStart(now)
		}
		if tier != TierPro {
			if reason := freeTierRefusal(*usage, rowCount, requestedSlides); reason != "" {
				return &DenialError{Reason: reason}
			}
		}
		usage.ConversionsThisMonth++
		return nil
	})
	if err != nil {
		if IsDenial(err) {
			observability.Governor().OnDenied(ctx, userID, err.Error())
			return nil, err
		}
		return nil, fmt.Errorf("update usage for %s: %w", userID, err)
	}
	observability.Governor().OnReserved(ctx, userID)
	return &Reservation{UserID: userID}, nil
}

// freeTierRefusal returns the denial reason for a free-tier request, or
// empty when the request fits the limits.
func freeTierRefusal(usage Usage, rowCount, requestedSlides int) string {
	switch {
	case usage.ConversionsThisMonth >= FreeMonthlyLimit:
		return fmt.Sprintf("monthly limit reached: the free plan allows %d conversions per month", FreeMonthlyLimit)
	case rowCount > FreeMaxRows:
		return fmt.Sprintf("dataset too large: the free plan allows up to %d rows, got %d", FreeMaxRows, rowCount)
	case requestedSlides > FreeMaxSlides:
		return fmt.Sprintf("too many slides requested: the free plan allows up to %d, got %d", FreeMaxSlides, requestedSlides)
	default:
		return ""
	}
}

// Rollback returns the reserved conversion slot after a failed run. It
// decrements the counter instead of restoring a snapshot, so it never
// clobbers slots that other requests reserved in the meantime, and a
// month rollover that happened since stays in place.
func (g *Governor) Rollback(ctx context.Context, r *Reservation) error {
	if r == nil {
		return nil
	}
	err := g.Store.Update(ctx, r.UserID, func(usage *Usage) error {
		if usage.ConversionsThisMonth > 0 {
			usage.ConversionsThisMonth--
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rollback usage for %s: %w", r.UserID, err)
	}
	observability.Governor().OnRollback(ctx, r.UserID)
	return nil
}

func (g *Governor) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now().UTC()
}

func monthChanged(last, now time.Time) bool {
	return last.Year() != now.Year() || last.Month() != now.Month()
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
