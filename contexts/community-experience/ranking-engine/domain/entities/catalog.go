package entities

import (
	"sort"
	"time"
)

type ConditionType string

const (
	ConditionPoints  ConditionType = "points"
	ConditionBugs    ConditionType = "bugs"
	ConditionStreak  ConditionType = "streak"
	ConditionRank    ConditionType = "rank"
	ConditionSpecial ConditionType = "special"
)

// SpecialCriticalBug unlocks when the triggering event is a critical finding.
const SpecialCriticalBug = "critical_bug"

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Condition is an unlock predicate. Threshold is used by points, bugs and
// streak; Rank by rank; Special by special.
type Condition struct {
	Type      ConditionType
	Threshold int
	Rank      Tier
	Special   string
}

type Achievement struct {
	ID          string
	Name        string
	Description string
	Condition   Condition
	PointsBonus int
	Rarity      Rarity
}

// Met tests the predicate against the user's current state and the severity of
// the event that triggered evaluation. Malformed predicates never unlock.
func (a Achievement) Met(user UserRanking, trigger Severity) bool {
	switch a.Condition.Type {
	case ConditionPoints:
		return user.TotalPoints >= a.Condition.Threshold
	case ConditionBugs:
		return user.BugsFound >= a.Condition.Threshold
	case ConditionStreak:
		return user.Streak >= a.Condition.Threshold
	case ConditionRank:
		return user.Tier == a.Condition.Rank
	case ConditionSpecial:
		return a.Condition.Special == SpecialCriticalBug && trigger == SeverityCritical
	default:
		return false
	}
}

type UserAchievement struct {
	ID            string
	UserID        string
	AchievementID string
	UnlockedAt    time.Time
}

var achievementCatalog = map[string]Achievement{
	"first_blood": {
		ID: "first_blood", Name: "First Blood", Description: "Report your first valid bug",
		Condition: Condition{Type: ConditionBugs, Threshold: 1}, PointsBonus: 50, Rarity: RarityCommon,
	},
	"bug_hunter": {
		ID: "bug_hunter", Name: "Bug Hunter", Description: "Report 10 valid bugs",
		Condition: Condition{Type: ConditionBugs, Threshold: 10}, PointsBonus: 250, Rarity: RarityRare,
	},
	"centurion": {
		ID: "centurion", Name: "Centurion", Description: "Report 100 valid bugs",
		Condition: Condition{Type: ConditionBugs, Threshold: 100}, PointsBonus: 2500, Rarity: RarityLegendary,
	},
	"rising_star": {
		ID: "rising_star", Name: "Rising Star", Description: "Earn 1,000 points",
		Condition: Condition{Type: ConditionPoints, Threshold: 1000}, PointsBonus: 100, Rarity: RarityCommon,
	},
	"elite_hunter": {
		ID: "elite_hunter", Name: "Elite Hunter", Description: "Earn 10,000 points",
		Condition: Condition{Type: ConditionPoints, Threshold: 10000}, PointsBonus: 1000, Rarity: RarityEpic,
	},
	"on_fire": {
		ID: "on_fire", Name: "On Fire", Description: "Keep a 7 day activity streak",
		Condition: Condition{Type: ConditionStreak, Threshold: 7}, PointsBonus: 200, Rarity: RarityRare,
	},
	"unstoppable": {
		ID: "unstoppable", Name: "Unstoppable", Description: "Keep a 30 day activity streak",
		Condition: Condition{Type: ConditionStreak, Threshold: 30}, PointsBonus: 1000, Rarity: RarityLegendary,
	},
	"a_rank": {
		ID: "a_rank", Name: "A-Rank Hunter", Description: "Reach rank A",
		Condition: Condition{Type: ConditionRank, Rank: TierA}, PointsBonus: 500, Rarity: RarityEpic,
	},
	"s_rank": {
		ID: "s_rank", Name: "S-Rank Legend", Description: "Reach rank S",
		Condition: Condition{Type: ConditionRank, Rank: TierS}, PointsBonus: 2000, Rarity: RarityLegendary,
	},
	"critical_finder": {
		ID: "critical_finder", Name: "Critical Finder", Description: "Report a critical severity bug",
		Condition: Condition{Type: ConditionSpecial, Special: SpecialCriticalBug}, PointsBonus: 300, Rarity: RarityRare,
	},
}

func FindAchievement(id string) (Achievement, bool) {
	item, ok := achievementCatalog[id]
	return item, ok
}

// Achievements lists the catalog ordered by id.
func Achievements() []Achievement {
	items := make([]Achievement, 0, len(achievementCatalog))
	for _, item := range achievementCatalog {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

type RewardCategory string

const (
	RewardCategoryMerch       RewardCategory = "merch"
	RewardCategoryPerk        RewardCategory = "perk"
	RewardCategoryAccess      RewardCategory = "access"
	RewardCategoryExperience  RewardCategory = "experience"
	RewardCategoryCertificate RewardCategory = "certificate"
)

type RewardItem struct {
	ID          string
	Name        string
	Description string
	PointsCost  int
	Category    RewardCategory
	// RequiredRank is empty when any tier may redeem.
	RequiredRank Tier
	// LimitedQuantity is zero for unlimited stock.
	LimitedQuantity int
	Available       bool
}

type RewardStatus string

const (
	RewardStatusPending   RewardStatus = "pending"
	RewardStatusDelivered RewardStatus = "delivered"
	RewardStatusExpired   RewardStatus = "expired"
)

type UserReward struct {
	ID          string
	UserID      string
	RewardID    string
	PointsSpent int
	Status      RewardStatus
	RedeemedAt  time.Time
}

var rewardCatalog = map[string]RewardItem{
	"sticker_pack": {
		ID: "sticker_pack", Name: "Sticker Pack", Description: "Hacker sticker bundle",
		PointsCost: 300, Category: RewardCategoryMerch, Available: true,
	},
	"hunter_certificate": {
		ID: "hunter_certificate", Name: "Hunter Certificate", Description: "Signed certificate of achievement",
		PointsCost: 1000, Category: RewardCategoryCertificate, RequiredRank: TierC, Available: true,
	},
	"hoodie": {
		ID: "hoodie", Name: "Hoodie", Description: "Limited edition platform hoodie",
		PointsCost: 2000, Category: RewardCategoryMerch, Available: true,
	},
	"priority_triage": {
		ID: "priority_triage", Name: "Priority Triage", Description: "Next five reports triaged first",
		PointsCost: 5000, Category: RewardCategoryPerk, RequiredRank: TierB, Available: true,
	},
	"private_program_invite": {
		ID: "private_program_invite", Name: "Private Program Invite", Description: "Invite to an invite-only program",
		PointsCost: 8000, Category: RewardCategoryAccess, RequiredRank: TierA, LimitedQuantity: 50, Available: true,
	},
	"conference_ticket": {
		ID: "conference_ticket", Name: "Conference Ticket", Description: "Paid ticket to a security conference",
		PointsCost: 15000, Category: RewardCategoryExperience, RequiredRank: TierS, LimitedQuantity: 5, Available: true,
	},
	"legacy_tshirt": {
		ID: "legacy_tshirt", Name: "Legacy T-Shirt", Description: "Retired first edition shirt",
		PointsCost: 500, Category: RewardCategoryMerch, Available: false,
	},
}

func FindReward(id string) (RewardItem, bool) {
	item, ok := rewardCatalog[id]
	return item, ok
}

// Rewards lists the catalog ordered by cost, then id.
func Rewards() []RewardItem {
	items := make([]RewardItem, 0, len(rewardCatalog))
	for _, item := range rewardCatalog {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].PointsCost == items[j].PointsCost {
			return items[i].ID < items[j].ID
		}
		return items[i].PointsCost < items[j].PointsCost
	})
	return items
}
