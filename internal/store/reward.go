package store

import (
	"context"
	"fmt"
	"time"

	"donkeymap/internal/utils"
	"donkeymap/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const rewardTableName = "rewards"

var rewardColumns = utils.StructTagValues(types.Reward{})

type RewardRepository struct {
	pool *pgxpool.Pool
}

func NewRewardRepository(pool *pgxpool.Pool) *RewardRepository {
	return &RewardRepository{pool: pool}
}

func (r *RewardRepository) Rewards(ctx context.Context) ([]*types.Reward, error) {
	query, args, err := psql().
		Select(rewardColumns...).
		From(rewardTableName).
		OrderBy("points ASC", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate rewards query: %w", err)
	}

	rewards := make([]*types.Reward, 0)
	err = pgxscan.Select(ctx, r.pool, &rewards, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rewards: %w", err)
	}

	return rewards, nil
}

func (r *RewardRepository) Reward(ctx context.Context, rewardID string) (*types.Reward, error) {
	query, args, err := psql().
		Select(rewardColumns...).
		From(rewardTableName).
		Where(sq.Eq{"id": rewardID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reward query: %w", err)
	}

	var reward types.Reward
	err = pgxscan.Get(ctx, r.pool, &reward, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to fetch reward: %w", err)
	}

	return &reward, nil
}

func upsertRewardQuery(reward *types.Reward) (string, []any, error) {
	return psql().
		Insert(rewardTableName).
		SetMap(utils.StructToMap(reward)).
		Suffix("ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, points = EXCLUDED.points, image_url = EXCLUDED.image_url").
		ToSql()
}

// UpsertByName inserts reward or refreshes the catalogue entry with the same name.
func (r *RewardRepository) UpsertByName(ctx context.Context, reward *types.Reward) error {
	if reward.ID == "" {
		reward.ID = utils.NewID()
	}
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now()
	}

	query, args, err := upsertRewardQuery(reward)
	if err != nil {
		return fmt.Errorf("failed to generate reward upsert query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to upsert reward")
}
