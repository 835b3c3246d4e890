package store

import (
	"errors"
	"fmt"
	"strings"

	"donkeymap/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

// constraint names Postgres generates for the foreign keys in schema.sql
const (
	fkResponseSurvey = "survey_responses_survey_id_fkey"
	fkClaimReward    = "claimed_rewards_reward_id_fkey"
)

// classifyError wraps err with msg and, for foreign-key violations, with the
// sentinel describing the missing row. Every other user reference in the
// schema points at users, so an unknown constraint means the user row is missing.
func classifyError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		switch pgErr.ConstraintName {
		case fkResponseSurvey:
			return fmt.Errorf("%s: %w: %w", msg, types.ErrSurveyNotFound, err)
		case fkClaimReward:
			return fmt.Errorf("%s: %w: %w", msg, types.ErrRewardNotFound, err)
		default:
			return fmt.Errorf("%s: %w: %w", msg, types.ErrMissingUserRecord, err)
		}
	}

	return fmt.Errorf("%s: %w", msg, err)
}
