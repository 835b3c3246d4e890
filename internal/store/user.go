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

const userTableName = "users"

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Users(ctx context.Context) ([]*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate users query: %w", err)
	}

	users := make([]*types.User, 0)
	err = pgxscan.Select(ctx, r.pool, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, nil
}

func ensureUserQuery(user *types.User) (string, []any, error) {
	return psql().
		Insert(userTableName).
		SetMap(utils.StructToMap(user)).
		Suffix("ON CONFLICT (id) DO NOTHING RETURNING id").
		ToSql()
}

// Ensure inserts user unless a row with its id already exists. It reports
// whether this call created the row; concurrent callers race only on the
// primary key.
func (r *UserRepository) Ensure(ctx context.Context, user *types.User) (bool, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query, args, err := ensureUserQuery(user)
	if err != nil {
		return false, fmt.Errorf("failed to generate ensure user query: %w", err)
	}

	var id string
	err = r.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to ensure user: %w", err)
	}

	return true, nil
}

func setUserStatusQuery(userID string, status types.UserStatus, approvedBy string, at time.Time) (string, []any, error) {
	return psql().
		Update(userTableName).
		SetMap(map[string]any{
			"status":      status,
			"approved_by": approvedBy,
			"approved_at": at,
			"updated_at":  at,
		}).
		Where(sq.Eq{"id": userID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
}

func (r *UserRepository) SetStatus(ctx context.Context, userID string, status types.UserStatus, approvedBy string) (*types.User, error) {
	query, args, err := setUserStatusQuery(userID, status, approvedBy, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate user status query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Stats(ctx context.Context, userID string) (*types.UserStats, error) {
	query, args, err := psql().
		Select("points", "surveys_completed").
		From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user stats query: %w", err)
	}

	var stats types.UserStats
	err = pgxscan.Get(ctx, r.pool, &stats, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user stats: %w", err)
	}

	return &stats, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string) error {
	now := time.Now()

	query, args, err := psql().
		Update(userTableName).
		Set("last_login", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate last login query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to record last login")
}
