package store

import (
	"context"
	"fmt"
	"time"

	"donkeymap/internal/utils"
	"donkeymap/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const responseTableName = "survey_responses"

var responseColumns = utils.StructTagValues(types.SurveyResponse{})

type ResponseRepository struct {
	pool *pgxpool.Pool
}

func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

func awardPointsQuery(userID string, points int, at time.Time) (string, []any, error) {
	return psql().
		Update(userTableName).
		Set("points", sq.Expr("points + ?", points)).
		Set("surveys_completed", sq.Expr("surveys_completed + 1")).
		Set("updated_at", at).
		Where(sq.Eq{"id": userID}).
		ToSql()
}

// Submit stores a response and credits the respondent in one transaction.
func (r *ResponseRepository) Submit(ctx context.Context, response *types.SurveyResponse, points int) error {
	now := time.Now()
	response.ID = utils.NewID()
	response.SubmittedAt = now

	insertQuery, insertArgs, err := psql().
		Insert(responseTableName).
		SetMap(utils.StructToMap(response)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate response insert query: %w", err)
	}

	awardQuery, awardArgs, err := awardPointsQuery(response.SubmittedBy, points, now)
	if err != nil {
		return fmt.Errorf("failed to generate award points query: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertQuery, insertArgs...)
		if err != nil {
			return classifyError(err, "failed to insert response")
		}

		tag, err := tx.Exec(ctx, awardQuery, awardArgs...)
		if err != nil {
			return fmt.Errorf("failed to award points: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return types.ErrMissingUserRecord
		}

		return nil
	})
}

func mapPointsQuery() (string, []any, error) {
	columns := append(
		utils.PrefixColumns("r", responseColumns),
		"s.title AS survey_title",
		"s.questions AS survey_questions",
	)

	return psql().
		Select(columns...).
		From(responseTableName + " r").
		InnerJoin(surveyTableName + " s ON s.id = r.survey_id").
		Where(sq.Eq{"s.status": types.SurveyStatusApproved, "s.is_public": true}).
		Where(sq.NotEq{"r.latitude": nil, "r.longitude": nil}).
		OrderBy("r.submitted_at DESC").
		ToSql()
}

// Located lists the located responses of approved public surveys along with
// the question definitions needed to filter their answers.
func (r *ResponseRepository) Located(ctx context.Context) ([]*types.LocatedResponse, error) {
	query, args, err := mapPointsQuery()
	if err != nil {
		return nil, fmt.Errorf("failed to generate map points query: %w", err)
	}

	responses := make([]*types.LocatedResponse, 0)
	err = pgxscan.Select(ctx, r.pool, &responses, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch located responses: %w", err)
	}

	return responses, nil
}

func (r *ResponseRepository) BySurveySince(ctx context.Context, surveyID string, since time.Time) ([]*types.SurveyResponse, error) {
	query, args, err := psql().
		Select(responseColumns...).
		From(responseTableName).
		Where(sq.Eq{"survey_id": surveyID}).
		Where(sq.Gt{"submitted_at": since}).
		OrderBy("submitted_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate survey responses query: %w", err)
	}

	responses := make([]*types.SurveyResponse, 0)
	err = pgxscan.Select(ctx, r.pool, &responses, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch survey responses: %w", err)
	}

	return responses, nil
}
