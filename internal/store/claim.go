package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donkeymap/internal/utils"
	"donkeymap/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const claimTableName = "claimed_rewards"

var claimColumns = utils.StructTagValues(types.ClaimedReward{})

type ClaimRepository struct {
	pool *pgxpool.Pool
}

func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// Claim redeems a reward for a user. The user row is locked while the balance
// is checked so concurrent claims cannot overdraw it.
func (r *ClaimRepository) Claim(ctx context.Context, userID, rewardID string) (*types.ClaimedReward, error) {
	var claim *types.ClaimedReward

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var cost int
		err := tx.QueryRow(ctx, "SELECT points FROM "+rewardTableName+" WHERE id = $1", rewardID).Scan(&cost)
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ErrRewardNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to fetch reward cost: %w", err)
		}

		var balance int
		err = tx.QueryRow(ctx, "SELECT points FROM "+userTableName+" WHERE id = $1 FOR UPDATE", userID).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ErrMissingUserRecord
		}
		if err != nil {
			return fmt.Errorf("failed to lock user balance: %w", err)
		}

		if balance < cost {
			return &types.InsufficientPointsError{Needed: cost - balance}
		}

		now := time.Now()
		_, err = tx.Exec(ctx, "UPDATE "+userTableName+" SET points = points - $1, updated_at = $2 WHERE id = $3", cost, now, userID)
		if err != nil {
			return fmt.Errorf("failed to deduct points: %w", err)
		}

		claim = &types.ClaimedReward{
			ID:        utils.NewID(),
			UserID:    userID,
			RewardID:  rewardID,
			Points:    cost,
			Status:    types.ClaimStatusProcessing,
			ClaimedAt: now,
		}

		query, args, err := psql().
			Insert(claimTableName).
			SetMap(utils.StructToMap(claim)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate claim insert query: %w", err)
		}

		_, err = tx.Exec(ctx, query, args...)
		return classifyError(err, "failed to insert claim")
	})
	if err != nil {
		return nil, err
	}

	return claim, nil
}

func claimHistoryQuery(userID string) (string, []any, error) {
	columns := append(
		utils.PrefixColumns("c", claimColumns),
		"rw.name AS reward_name",
		"rw.description AS reward_description",
	)

	return psql().
		Select(columns...).
		From(claimTableName + " c").
		InnerJoin(rewardTableName + " rw ON rw.id = c.reward_id").
		Where(sq.Eq{"c.user_id": userID}).
		OrderBy("c.claimed_at DESC").
		ToSql()
}

func (r *ClaimRepository) History(ctx context.Context, userID string) ([]*types.ClaimedRewardView, error) {
	query, args, err := claimHistoryQuery(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate claim history query: %w", err)
	}

	claims := make([]*types.ClaimedRewardView, 0)
	err = pgxscan.Select(ctx, r.pool, &claims, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch claim history: %w", err)
	}

	return claims, nil
}

// SetStatus moves a processing claim to delivered or cancelled. Cancelling
// returns the claimed points to the user.
func (r *ClaimRepository) SetStatus(ctx context.Context, claimID string, status types.ClaimStatus) (*types.ClaimedReward, error) {
	var claim types.ClaimedReward

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query, args, err := psql().
			Select(claimColumns...).
			From(claimTableName).
			Where(sq.Eq{"id": claimID}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate claim query: %w", err)
		}

		err = pgxscan.Get(ctx, tx, &claim, query, args...)
		if err != nil {
			if pgxscan.NotFound(err) {
				return types.ErrClaimNotFound
			}
			return fmt.Errorf("failed to fetch claim: %w", err)
		}

		if claim.Status != types.ClaimStatusProcessing {
			return types.ErrClaimNotPending
		}

		_, err = tx.Exec(ctx, "UPDATE "+claimTableName+" SET status = $1 WHERE id = $2", status, claimID)
		if err != nil {
			return fmt.Errorf("failed to update claim status: %w", err)
		}

		if status == types.ClaimStatusCancelled {
			_, err = tx.Exec(ctx, "UPDATE "+userTableName+" SET points = points + $1, updated_at = $2 WHERE id = $3", claim.Points, time.Now(), claim.UserID)
			if err != nil {
				return fmt.Errorf("failed to refund points: %w", err)
			}
		}

		claim.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &claim, nil
}
