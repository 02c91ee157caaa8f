package prompt

import (
	"strconv"
	"strings"
)

// ResolutionTier groups output sizes into the tiers the generative provider
// accepts.
type ResolutionTier string

const (
	TierStandard ResolutionTier = "standard"
	TierHigh     ResolutionTier = "high"
)

// FormatSpec describes the requested output format of an enhancement.
type FormatSpec struct {
	AspectRatio string
	Width       int
	Height      int
	Tier        ResolutionTier
}

// FormatHints are caller-supplied format overrides. Empty fields defer to the
// platform defaults.
type FormatHints struct {
	AspectRatio string
	Tier        ResolutionTier
}

// ResolveFormat combines caller hints with the platform default into a
// concrete format spec. Unknown aspect strings of the form "a:b" are still
// honoured; anything else falls back to square.
func ResolveFormat(hints FormatHints, platform Platform) FormatSpec {
	aspect := strings.TrimSpace(hints.AspectRatio)
	if aspect == "" {
		if _, def, ok := platform.Constraint(); ok && def != "" {
			aspect = def
		}
	}
	tier := hints.Tier
	if tier == "" {
		tier = TierStandard
		if platform == PlatformPrintMenu {
			tier = TierHigh
		}
	}
	w, h := aspectSize(aspect, tier)
	if aspect == "" {
		aspect = "1:1"
	}
	return FormatSpec{AspectRatio: aspect, Width: w, Height: h, Tier: tier}
}

func aspectSize(aspect string, tier ResolutionTier) (int, int) {
	base := 1024
	if tier == TierHigh {
		base = 2048
	}
	switch strings.TrimSpace(strings.ToLower(aspect)) {
	case "16:9":
		return base * 16 / 9, base
	case "9:16":
		return base, base * 16 / 9
	case "4:3":
		return base * 4 / 3, base
	case "3:4":
		return base, base * 4 / 3
	case "4:5":
		return base, base * 5 / 4
	case "1:1", "square", "":
		return base, base
	default:
		parts := strings.Split(aspect, ":")
		if len(parts) == 2 {
			a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
			b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
			if errA == nil && errB == nil && a > 0 && b > 0 {
				return base, base * b / a
			}
		}
		return base, base
	}
}
