package domain

import "strings"

// starterCapacity is the largest room count served by the starter tier.
const starterCapacity = 20

// ResolveTag maps a room capacity and requested billing cycle to a plan tag.
// It is pure: any capacity and any cycle string resolve to one of the four
// seeded tags, never an error.
func ResolveTag(capacity int, cycle string) string {
	tier := TierStarter
	if capacity > starterCapacity {
		tier = TierSpark
	}

	// Anything other than an explicit yearly request normalizes to monthly.
	normalized := CycleMonthly
	if strings.ToLower(strings.TrimSpace(cycle)) == CycleYearly {
		normalized = CycleYearly
	}

	return tier + "-" + normalized
}
