package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ApplyEventRequest struct {
	UserID      string  `json:"user_id" validate:"required,max=128"`
	DisplayName string  `json:"display_name,omitempty" validate:"max=128"`
	Severity    string  `json:"severity" validate:"required,max=16"`
	Reason      string  `json:"reason,omitempty" validate:"max=512"`
	SourceRef   string  `json:"source_ref,omitempty" validate:"max=128"`
	Earnings    float64 `json:"earnings,omitempty" validate:"gte=0"`
}

type UnlockedAchievementDTO struct {
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Rarity        string `json:"rarity"`
	BonusPoints   int    `json:"bonus_points"`
	UnlockedAt    string `json:"unlocked_at"`
}

type ApplyEventResponse struct {
	Status   string `json:"status"`
	Replayed bool   `json:"replayed,omitempty"`
	Data     struct {
		TransactionID        string                   `json:"transaction_id"`
		UserID               string                   `json:"user_id"`
		PointsAwarded        int                      `json:"points_awarded"`
		Multiplier           float64                  `json:"multiplier,omitempty"`
		TotalPoints          int                      `json:"total_points"`
		Tier                 string                   `json:"tier"`
		Streak               int                      `json:"streak"`
		RankProgress         float64                  `json:"rank_progress"`
		NextRankPoints       int                      `json:"next_rank_points"`
		AchievementsUnlocked []UnlockedAchievementDTO `json:"achievements_unlocked"`
	} `json:"data"`
}

type RedeemRewardRequest struct {
	RewardID string `json:"reward_id" validate:"required,max=64"`
}

type RedeemRewardResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		RedemptionID    string `json:"redemption_id"`
		RewardID        string `json:"reward_id"`
		PointsSpent     int    `json:"points_spent"`
		RemainingPoints int    `json:"remaining_points"`
		Tier            string `json:"tier"`
		Status          string `json:"status"`
		RedeemedAt      string `json:"redeemed_at"`
	} `json:"data,omitempty"`
}

type UserRankingDTO struct {
	UserID         string  `json:"user_id"`
	DisplayName    string  `json:"display_name,omitempty"`
	TotalPoints    int     `json:"total_points"`
	Tier           string  `json:"tier"`
	BugsFound      int     `json:"bugs_found"`
	TotalEarnings  float64 `json:"total_earnings"`
	WeeklyPoints   int     `json:"weekly_points"`
	MonthlyPoints  int     `json:"monthly_points"`
	Streak         int     `json:"streak"`
	LastActivity   string  `json:"last_activity,omitempty"`
	RankProgress   float64 `json:"rank_progress"`
	NextRankPoints int     `json:"next_rank_points"`
}

type ScoreDTO struct {
	Total       float64 `json:"total"`
	Points      float64 `json:"points"`
	Activity    float64 `json:"activity"`
	Consistency float64 `json:"consistency"`
	Quality     float64 `json:"quality"`
}

type LeaderboardEntryDTO struct {
	Position int            `json:"position"`
	Ranking  UserRankingDTO `json:"ranking"`
	Score    ScoreDTO       `json:"score"`
}

type LeaderboardResponse struct {
	Status string                `json:"status"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Data   []LeaderboardEntryDTO `json:"data"`
}

type TierDTO struct {
	Tier              string   `json:"tier"`
	MinPoints         int      `json:"min_points"`
	MaxPoints         *int     `json:"max_points"`
	WeeklyRequirement int      `json:"weekly_requirement"`
	Benefits          []string `json:"benefits"`
}

type UserRankingResponse struct {
	Status string `json:"status"`
	Data   struct {
		Ranking  UserRankingDTO `json:"ranking"`
		Current  TierDTO        `json:"current_tier"`
		NextTier *TierDTO       `json:"next_tier,omitempty"`
		AtRisk   bool           `json:"at_risk"`
		Score    ScoreDTO       `json:"score"`
	} `json:"data"`
}

type TransactionDTO struct {
	TransactionID string  `json:"transaction_id"`
	SourceRef     string  `json:"source_ref"`
	Kind          string  `json:"kind"`
	Points        int     `json:"points"`
	Reason        string  `json:"reason,omitempty"`
	Severity      string  `json:"severity,omitempty"`
	Multiplier    float64 `json:"multiplier,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type TransactionsResponse struct {
	Status string           `json:"status"`
	Data   []TransactionDTO `json:"data"`
}

type AchievementStatusDTO struct {
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Rarity        string `json:"rarity"`
	BonusPoints   int    `json:"bonus_points"`
	Unlocked      bool   `json:"unlocked"`
	UnlockedAt    string `json:"unlocked_at,omitempty"`
}

type AchievementsResponse struct {
	Status string                 `json:"status"`
	Data   []AchievementStatusDTO `json:"data"`
}

type RewardStatusDTO struct {
	RewardID     string `json:"reward_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	PointsCost   int    `json:"points_cost"`
	RequiredRank string `json:"required_rank,omitempty"`
	Available    bool   `json:"available"`
	Remaining    *int   `json:"remaining,omitempty"`
	Eligible     bool   `json:"eligible"`
	Reason       string `json:"reason,omitempty"`
}

type RedemptionDTO struct {
	RedemptionID string `json:"redemption_id"`
	RewardID     string `json:"reward_id"`
	PointsSpent  int    `json:"points_spent"`
	Status       string `json:"status"`
	RedeemedAt   string `json:"redeemed_at"`
}

type RewardsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Rewards     []RewardStatusDTO `json:"rewards"`
		Redemptions []RedemptionDTO   `json:"redemptions"`
	} `json:"data"`
}

type TiersResponse struct {
	Status string    `json:"status"`
	Data   []TierDTO `json:"data"`
}
