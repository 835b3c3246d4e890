package types

import "time"

type Reward struct {
	ID          string    `db:"id" json:"id" yaml:"-"`
	Name        string    `db:"name" json:"name" yaml:"name"`
	Description string    `db:"description" json:"description" yaml:"description"`
	Points      int       `db:"points" json:"points" yaml:"points"`
	ImageURL    *string   `db:"image_url" json:"image" yaml:"image"`
	CreatedAt   time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

type ClaimStatus string

const (
	ClaimStatusProcessing ClaimStatus = "processing"
	ClaimStatusDelivered  ClaimStatus = "delivered"
	ClaimStatusCancelled  ClaimStatus = "cancelled"
)

type ClaimedReward struct {
	ID        string      `db:"id" json:"id"`
	UserID    string      `db:"user_id" json:"user_id"`
	RewardID  string      `db:"reward_id" json:"reward_id"`
	Points    int         `db:"points" json:"points"`
	Status    ClaimStatus `db:"status" json:"status"`
	ClaimedAt time.Time   `db:"claimed_at" json:"claimed_at"`
}

// ClaimedRewardView is a claim joined with the reward it redeemed.
type ClaimedRewardView struct {
	ClaimedReward
	RewardName        string `db:"reward_name" json:"name"`
	RewardDescription string `db:"reward_description" json:"description"`
}
