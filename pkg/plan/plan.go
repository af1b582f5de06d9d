// Package plan maps subscription tiers to generation parameters and
// enforces free-tier usage limits with rollback-friendly reservations.
package plan

import (
	"fmt"
	"strings"
)

// Tier is a subscription level.
type Tier string

// Known tiers.
const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Free-tier limits.
const (
	FreeMonthlyLimit = 10
	FreeMaxRows      = 5000
	FreeMaxSlides    = 8
)

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, nil
	case TierPro:
		return TierPro, nil
	default:
		return "", fmt.Errorf("unknown plan tier %q (expected free or pro)", s)
	}
}

// Parameters are the generation settings a tier entitles a user to.
type Parameters struct {
	// MaxSlides caps the deck length; 0 means uncapped.
	MaxSlides int
	TextStyle string
	Watermark bool
	Template  string
}

// Derive returns the generation parameters for a tier. The free tier's
// "light" text style is a legacy name the composer normalizes.
func Derive(t Tier) Parameters {
	if t == TierPro {
		return Parameters{
			MaxSlides: 0,
			TextStyle: "executive",
			Watermark: false,
			Template:  "pro_template",
		}
	}
	return Parameters{
		MaxSlides: FreeMaxSlides,
		TextStyle: "light",
		Watermark: true,
		Template:  "default",
	}
}
