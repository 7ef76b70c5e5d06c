package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/application/commands"
	"bountyboard/contexts/community-experience/ranking-engine/application/queries"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	httptransport "bountyboard/contexts/community-experience/ranking-engine/transport/http"

	"github.com/go-playground/validator/v10"
)

type Handler struct {
	Events      commands.EventUseCase
	Redemptions commands.RedemptionUseCase
	Leaderboard queries.LeaderboardUseCase
	Profile     queries.ProfileUseCase
	Validate    *validator.Validate
	Logger      *slog.Logger
}

func (h Handler) validate(req any) error {
	v := h.Validate
	if v == nil {
		v = defaultValidator
	}
	if err := v.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrInvalidInput, err)
	}
	return nil
}

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

func (h Handler) ApplyEventHandler(ctx context.Context, req httptransport.ApplyEventRequest) (httptransport.ApplyEventResponse, error) {
	if err := h.validate(req); err != nil {
		return httptransport.ApplyEventResponse{}, err
	}
	severity, ok := entities.ParseSeverity(req.Severity)
	if !ok {
		return httptransport.ApplyEventResponse{}, domainerrors.ErrInvalidSeverity
	}
	result, err := h.Events.ApplyEvent(ctx, commands.ApplyEventCommand{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Severity:    severity,
		Reason:      req.Reason,
		SourceRef:   req.SourceRef,
		Earnings:    req.Earnings,
	})
	if err != nil {
		return httptransport.ApplyEventResponse{}, err
	}

	resp := httptransport.ApplyEventResponse{
		Status:   "success",
		Replayed: result.Replayed,
	}
	resp.Data.TransactionID = result.Transaction.TransactionID
	resp.Data.UserID = result.Ranking.UserID
	resp.Data.PointsAwarded = result.Transaction.Points
	resp.Data.Multiplier = result.Transaction.Multiplier
	resp.Data.TotalPoints = result.Ranking.TotalPoints
	resp.Data.Tier = string(result.Ranking.Tier)
	resp.Data.Streak = result.Ranking.Streak
	resp.Data.RankProgress = result.Ranking.RankProgress
	resp.Data.NextRankPoints = result.Ranking.NextRankPoints
	resp.Data.AchievementsUnlocked = make([]httptransport.UnlockedAchievementDTO, 0, len(result.Unlocked))
	for _, item := range result.Unlocked {
		resp.Data.AchievementsUnlocked = append(resp.Data.AchievementsUnlocked, httptransport.UnlockedAchievementDTO{
			AchievementID: item.Achievement.ID,
			Name:          item.Achievement.Name,
			Rarity:        string(item.Achievement.Rarity),
			BonusPoints:   item.Bonus.Points,
			UnlockedAt:    formatTime(item.Record.UnlockedAt),
		})
	}
	return resp, nil
}

func (h Handler) RedeemRewardHandler(
	ctx context.Context,
	userID string,
	req httptransport.RedeemRewardRequest,
) (httptransport.RedeemRewardResponse, error) {
	if err := h.validate(req); err != nil {
		return httptransport.RedeemRewardResponse{}, err
	}
	result, err := h.Redemptions.Redeem(ctx, commands.RedeemCommand{
		UserID:   userID,
		RewardID: req.RewardID,
	})
	if err != nil {
		return httptransport.RedeemRewardResponse{}, err
	}

	resp := httptransport.RedeemRewardResponse{
		Success: result.Success,
		Message: result.Message,
	}
	if result.Success {
		resp.Data = &struct {
			RedemptionID    string `json:"redemption_id"`
			RewardID        string `json:"reward_id"`
			PointsSpent     int    `json:"points_spent"`
			RemainingPoints int    `json:"remaining_points"`
			Tier            string `json:"tier"`
			Status          string `json:"status"`
			RedeemedAt      string `json:"redeemed_at"`
		}{
			RedemptionID:    result.UserReward.ID,
			RewardID:        result.UserReward.RewardID,
			PointsSpent:     result.UserReward.PointsSpent,
			RemainingPoints: result.Ranking.TotalPoints,
			Tier:            string(result.Ranking.Tier),
			Status:          string(result.UserReward.Status),
			RedeemedAt:      formatTime(result.UserReward.RedeemedAt),
		}
	}
	return resp, nil
}

func (h Handler) LeaderboardHandler(
	ctx context.Context,
	tier string,
	search string,
	limit int,
	offset int,
) (httptransport.LeaderboardResponse, error) {
	query := queries.LeaderboardQuery{Search: search, Limit: limit, Offset: offset}
	if tier != "" {
		parsed, ok := entities.ParseTier(tier)
		if !ok {
			return httptransport.LeaderboardResponse{}, domainerrors.ErrInvalidInput
		}
		query.Tier = parsed
	}
	page, err := h.Leaderboard.Leaderboard(ctx, query)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}

	resp := httptransport.LeaderboardResponse{
		Status: "success",
		Total:  page.Total,
		Limit:  limit,
		Offset: offset,
		Data:   make([]httptransport.LeaderboardEntryDTO, 0, len(page.Entries)),
	}
	for _, entry := range page.Entries {
		resp.Data = append(resp.Data, httptransport.LeaderboardEntryDTO{
			Position: entry.Position,
			Ranking:  toRankingDTO(entry.Ranking),
			Score:    toScoreDTO(entry.Metrics),
		})
	}
	return resp, nil
}

func (h Handler) GetUserRankingHandler(ctx context.Context, userID string) (httptransport.UserRankingResponse, error) {
	summary, err := h.Profile.Summary(ctx, userID)
	if err != nil {
		return httptransport.UserRankingResponse{}, err
	}
	resp := httptransport.UserRankingResponse{Status: "success"}
	resp.Data.Ranking = toRankingDTO(summary.Ranking)
	resp.Data.Current = toTierDTO(summary.Config)
	if summary.NextTier != nil {
		next := toTierDTO(*summary.NextTier)
		resp.Data.NextTier = &next
	}
	resp.Data.AtRisk = summary.AtRisk
	resp.Data.Score = toScoreDTO(summary.Metrics)
	return resp, nil
}

func (h Handler) ListTransactionsHandler(ctx context.Context, userID string, limit int) (httptransport.TransactionsResponse, error) {
	items, err := h.Profile.Transactions(ctx, userID, limit)
	if err != nil {
		return httptransport.TransactionsResponse{}, err
	}
	resp := httptransport.TransactionsResponse{
		Status: "success",
		Data:   make([]httptransport.TransactionDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, httptransport.TransactionDTO{
			TransactionID: item.TransactionID,
			SourceRef:     item.SourceRef,
			Kind:          string(item.Kind),
			Points:        item.Points,
			Reason:        item.Reason,
			Severity:      string(item.Severity),
			Multiplier:    item.Multiplier,
			CreatedAt:     formatTime(item.CreatedAt),
		})
	}
	return resp, nil
}

func (h Handler) ListAchievementsHandler(ctx context.Context, userID string) (httptransport.AchievementsResponse, error) {
	items, err := h.Profile.Achievements(ctx, userID)
	if err != nil {
		return httptransport.AchievementsResponse{}, err
	}
	resp := httptransport.AchievementsResponse{
		Status: "success",
		Data:   make([]httptransport.AchievementStatusDTO, 0, len(items)),
	}
	for _, item := range items {
		dto := httptransport.AchievementStatusDTO{
			AchievementID: item.Achievement.ID,
			Name:          item.Achievement.Name,
			Description:   item.Achievement.Description,
			Rarity:        string(item.Achievement.Rarity),
			BonusPoints:   item.Achievement.PointsBonus,
			Unlocked:      item.Unlocked,
		}
		if item.UnlockedAt != nil {
			dto.UnlockedAt = formatTime(*item.UnlockedAt)
		}
		resp.Data = append(resp.Data, dto)
	}
	return resp, nil
}

func (h Handler) ListRewardsHandler(ctx context.Context, userID string) (httptransport.RewardsResponse, error) {
	view, err := h.Profile.Rewards(ctx, userID)
	if err != nil {
		return httptransport.RewardsResponse{}, err
	}
	resp := httptransport.RewardsResponse{Status: "success"}
	resp.Data.Rewards = make([]httptransport.RewardStatusDTO, 0, len(view.Rewards))
	for _, item := range view.Rewards {
		dto := httptransport.RewardStatusDTO{
			RewardID:     item.Reward.ID,
			Name:         item.Reward.Name,
			Description:  item.Reward.Description,
			Category:     string(item.Reward.Category),
			PointsCost:   item.Reward.PointsCost,
			RequiredRank: string(item.Reward.RequiredRank),
			Available:    item.Reward.Available,
			Eligible:     item.Eligible,
			Reason:       item.Reason,
		}
		if item.Remaining >= 0 {
			remaining := item.Remaining
			dto.Remaining = &remaining
		}
		resp.Data.Rewards = append(resp.Data.Rewards, dto)
	}
	resp.Data.Redemptions = make([]httptransport.RedemptionDTO, 0, len(view.Redemptions))
	for _, item := range view.Redemptions {
		resp.Data.Redemptions = append(resp.Data.Redemptions, httptransport.RedemptionDTO{
			RedemptionID: item.ID,
			RewardID:     item.RewardID,
			PointsSpent:  item.PointsSpent,
			Status:       string(item.Status),
			RedeemedAt:   formatTime(item.RedeemedAt),
		})
	}
	return resp, nil
}

func (h Handler) ListTiersHandler(context.Context) (httptransport.TiersResponse, error) {
	table := h.Profile.Tiers()
	resp := httptransport.TiersResponse{
		Status: "success",
		Data:   make([]httptransport.TierDTO, 0, len(table)),
	}
	for _, item := range table {
		resp.Data = append(resp.Data, toTierDTO(item))
	}
	return resp, nil
}

func toRankingDTO(item entities.UserRanking) httptransport.UserRankingDTO {
	dto := httptransport.UserRankingDTO{
		UserID:         item.UserID,
		DisplayName:    item.DisplayName,
		TotalPoints:    item.TotalPoints,
		Tier:           string(item.Tier),
		BugsFound:      item.BugsFound,
		TotalEarnings:  item.TotalEarnings,
		WeeklyPoints:   item.WeeklyPoints,
		MonthlyPoints:  item.MonthlyPoints,
		Streak:         item.Streak,
		RankProgress:   item.RankProgress,
		NextRankPoints: item.NextRankPoints,
	}
	if !item.LastActivity.IsZero() {
		dto.LastActivity = formatTime(item.LastActivity)
	}
	return dto
}

func toScoreDTO(item entities.RankingMetrics) httptransport.ScoreDTO {
	return httptransport.ScoreDTO{
		Total:       item.Total,
		Points:      item.PointsWeight,
		Activity:    item.ActivityWeight,
		Consistency: item.ConsistencyWeight,
		Quality:     item.QualityWeight,
	}
}

// toTierDTO leaves max_points null for the open-ended top tier.
func toTierDTO(item entities.RankConfig) httptransport.TierDTO {
	dto := httptransport.TierDTO{
		Tier:              string(item.Tier),
		MinPoints:         item.MinPoints,
		WeeklyRequirement: item.WeeklyRequirement,
		Benefits:          append([]string(nil), item.Benefits...),
	}
	if item.MaxPoints != entities.Unbounded {
		maxPoints := item.MaxPoints
		dto.MaxPoints = &maxPoints
	}
	return dto
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339)
}
