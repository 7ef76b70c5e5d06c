package entities

import (
	"math"
	"strings"
)

type Tier string

const (
	TierE Tier = "E"
	TierD Tier = "D"
	TierC Tier = "C"
	TierB Tier = "B"
	TierA Tier = "A"
	TierS Tier = "S"
)

// Unbounded marks the open upper end of the top tier.
const Unbounded = math.MaxInt

// RankConfig describes one tier of the static rank table. Ranges are inclusive.
type RankConfig struct {
	Tier              Tier
	MinPoints         int
	MaxPoints         int
	WeeklyRequirement int
	Benefits          []string
}

// rankTable is ordered from lowest to highest tier; ranges are contiguous.
var rankTable = []RankConfig{
	{
		Tier:              TierE,
		MinPoints:         0,
		MaxPoints:         499,
		WeeklyRequirement: 0,
		Benefits:          []string{"Access to public programs", "Community forum access"},
	},
	{
		Tier:              TierD,
		MinPoints:         500,
		MaxPoints:         1499,
		WeeklyRequirement: 100,
		Benefits:          []string{"Profile badge", "Hall of fame listing"},
	},
	{
		Tier:              TierC,
		MinPoints:         1500,
		MaxPoints:         3999,
		WeeklyRequirement: 250,
		Benefits:          []string{"Faster triage SLA", "Certificate eligibility"},
	},
	{
		Tier:              TierB,
		MinPoints:         4000,
		MaxPoints:         7999,
		WeeklyRequirement: 500,
		Benefits:          []string{"Private program previews", "Priority support"},
	},
	{
		Tier:              TierA,
		MinPoints:         8000,
		MaxPoints:         14999,
		WeeklyRequirement: 1000,
		Benefits:          []string{"Private program invites", "Exclusive swag drops"},
	},
	{
		Tier:              TierS,
		MinPoints:         15000,
		MaxPoints:         Unbounded,
		WeeklyRequirement: 2000,
		Benefits:          []string{"All private programs", "Live hacking event invites", "Direct security team channel"},
	},
}

var tierIndex = func() map[Tier]int {
	index := make(map[Tier]int, len(rankTable))
	for i, cfg := range rankTable {
		index[cfg.Tier] = i
	}
	return index
}()

// RankTable returns a copy of the rank table ordered from E to S.
func RankTable() []RankConfig {
	items := make([]RankConfig, 0, len(rankTable))
	for _, cfg := range rankTable {
		cfg.Benefits = append([]string(nil), cfg.Benefits...)
		items = append(items, cfg)
	}
	return items
}

func ParseTier(raw string) (Tier, bool) {
	tier := Tier(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := tierIndex[tier]; !ok {
		return "", false
	}
	return tier, true
}

func IsValidTier(tier Tier) bool {
	_, ok := tierIndex[tier]
	return ok
}

// TierRank is the ordinal of a tier, E=0 through S=5. Unknown tiers rank -1.
func TierRank(tier Tier) int {
	rank, ok := tierIndex[tier]
	if !ok {
		return -1
	}
	return rank
}

// ConfigFor returns the rank table row of a tier, falling back to the lowest tier.
func ConfigFor(tier Tier) RankConfig {
	rank, ok := tierIndex[tier]
	if !ok {
		return rankTable[0]
	}
	return rankTable[rank]
}

// TierFor returns the tier whose inclusive range contains points.
func TierFor(points int) Tier {
	for _, cfg := range rankTable {
		if points >= cfg.MinPoints && points <= cfg.MaxPoints {
			return cfg.Tier
		}
	}
	return rankTable[0].Tier
}

// ProgressFor reports the progress percentage through the tier and the points
// still needed to reach the next one. The top tier is always (100, 0).
func ProgressFor(points int, tier Tier) (float64, int) {
	cfg := ConfigFor(tier)
	if cfg.MaxPoints == Unbounded {
		return 100, 0
	}
	span := float64(cfg.MaxPoints - cfg.MinPoints)
	progress := float64(points-cfg.MinPoints) / span * 100
	progress = math.Max(0, math.Min(100, progress))
	return progress, cfg.MaxPoints + 1 - points
}
