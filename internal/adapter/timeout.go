package adapter

import (
	"os"
	"strconv"
	"time"
)

// Timeout tiers for engine submissions. Base values are multiplied by
// BOTTLE_TIMEOUT_MULTIPLIER when set; CI environments conventionally run
// with a multiplier of 4 to absorb slower networks.
const (
	TierImmediate = 1 * time.Second  // existence/PATH checks
	TierQuick     = 5 * time.Second  // version query, list packages
	TierStandard  = 30 * time.Second // install/uninstall, venv create
	TierExtended  = 60 * time.Second // large or initial installs
)

const multiplierVar = "BOTTLE_TIMEOUT_MULTIPLIER"

// ApplyTimeoutMultiplier propagates a configuration-file multiplier into the
// process environment. An already-set BOTTLE_TIMEOUT_MULTIPLIER wins, so CI
// overrides stay effective.
func ApplyTimeoutMultiplier(mult float64) {
	if mult <= 0 || mult == 1 {
		return
	}
	if os.Getenv(multiplierVar) == "" {
		_ = os.Setenv(multiplierVar, strconv.FormatFloat(mult, 'f', -1, 64))
	}
}

// Timeout scales a tier by the configured multiplier.
func Timeout(tier time.Duration) time.Duration {
	raw := os.Getenv(multiplierVar)
	if raw == "" {
		return tier
	}
	mult, err := strconv.ParseFloat(raw, 64)
	if err != nil || mult <= 0 {
		return tier
	}
	return time.Duration(float64(tier) * mult)
}
