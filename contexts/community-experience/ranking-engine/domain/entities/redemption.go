package entities

import "fmt"

const (
	MessageUserNotFound      = "User not found"
	MessageRewardNotFound    = "Reward not found"
	MessageRewardUnavailable = "Reward is not available"
	MessageInsufficientPts   = "Insufficient points"
	MessageOutOfStock        = "Reward is out of stock"
	MessageRedeemed          = "Reward redeemed successfully"
)

// RankTooLowMessage is the ineligibility message for a rank-gated reward.
func RankTooLowMessage(required Tier) string {
	return fmt.Sprintf("Requires rank %s or higher", required)
}

// CheckRedemption applies the ordered eligibility checks that follow the
// existence checks: availability, cost, rank gate, then stock. redeemed is the
// number of existing redemptions of the reward across all users.
func CheckRedemption(user UserRanking, reward RewardItem, redeemed int) (bool, string) {
	if !reward.Available {
		return false, MessageRewardUnavailable
	}
	if user.TotalPoints < reward.PointsCost {
		return false, MessageInsufficientPts
	}
	if reward.RequiredRank != "" && TierRank(user.Tier) < TierRank(reward.RequiredRank) {
		return false, RankTooLowMessage(reward.RequiredRank)
	}
	if reward.LimitedQuantity > 0 && redeemed >= reward.LimitedQuantity {
		return false, MessageOutOfStock
	}
	return true, ""
}

// Debit removes the reward cost and re-derives tier and progress from the new total.
func (r *UserRanking) Debit(points int) {
	r.TotalPoints -= points
	r.Recalculate()
}
