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

const surveyTableName = "surveys"

var surveyColumns = utils.StructTagValues(types.Survey{})

type SurveyRepository struct {
	pool *pgxpool.Pool
}

func NewSurveyRepository(pool *pgxpool.Pool) *SurveyRepository {
	return &SurveyRepository{pool: pool}
}

// Create inserts a new survey. Status is always pending regardless of the
// value on the struct.
func (r *SurveyRepository) Create(ctx context.Context, survey *types.Survey) error {
	now := time.Now()
	survey.ID = utils.NewID()
	survey.Status = types.SurveyStatusPending
	survey.ApprovedBy = nil
	survey.ApprovedAt = nil
	survey.CreatedAt = now
	survey.UpdatedAt = now

	query, args, err := psql().
		Insert(surveyTableName).
		SetMap(utils.StructToMap(survey)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate survey insert query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return classifyError(err, "failed to insert survey")
}

func (r *SurveyRepository) Survey(ctx context.Context, surveyID string) (*types.Survey, error) {
	query, args, err := psql().
		Select(surveyColumns...).
		From(surveyTableName).
		Where(sq.Eq{"id": surveyID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate survey query: %w", err)
	}

	var survey types.Survey
	err = pgxscan.Get(ctx, r.pool, &survey, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to fetch survey: %w", err)
	}

	return &survey, nil
}

func (r *SurveyRepository) list(ctx context.Context, where sq.Sqlizer) ([]*types.Survey, error) {
	query, args, err := psql().
		Select(surveyColumns...).
		From(surveyTableName).
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate surveys query: %w", err)
	}

	surveys := make([]*types.Survey, 0)
	err = pgxscan.Select(ctx, r.pool, &surveys, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch surveys: %w", err)
	}

	return surveys, nil
}

// Visible lists approved public surveys.
func (r *SurveyRepository) Visible(ctx context.Context) ([]*types.Survey, error) {
	return r.list(ctx, sq.Eq{"status": types.SurveyStatusApproved, "is_public": true})
}

// Approved lists every approved survey, public or not.
func (r *SurveyRepository) Approved(ctx context.Context) ([]*types.Survey, error) {
	return r.list(ctx, sq.Eq{"status": types.SurveyStatusApproved})
}

func (r *SurveyRepository) ByCreator(ctx context.Context, userID string) ([]*types.Survey, error) {
	return r.list(ctx, sq.Eq{"created_by": userID})
}

func pendingSurveysQuery() (string, []any, error) {
	columns := append(
		utils.PrefixColumns("s", surveyColumns),
		"u.name AS creator_name",
		"u.email AS creator_email",
	)

	return psql().
		Select(columns...).
		From(surveyTableName + " s").
		LeftJoin(userTableName + " u ON u.id = s.created_by").
		Where(sq.Eq{"s.status": types.SurveyStatusPending}).
		OrderBy("s.created_at ASC").
		ToSql()
}

func (r *SurveyRepository) Pending(ctx context.Context) ([]*types.PendingSurvey, error) {
	query, args, err := pendingSurveysQuery()
	if err != nil {
		return nil, fmt.Errorf("failed to generate pending surveys query: %w", err)
	}

	surveys := make([]*types.PendingSurvey, 0)
	err = pgxscan.Select(ctx, r.pool, &surveys, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending surveys: %w", err)
	}

	return surveys, nil
}

func updateSurveyQuery(survey *types.Survey, at time.Time) (string, []any, error) {
	return psql().
		Update(surveyTableName).
		SetMap(map[string]any{
			"title":       survey.Title,
			"description": survey.Description,
			"questions":   survey.Questions,
			"is_public":   survey.IsPublic,
			"status":      types.SurveyStatusPending,
			"approved_by": nil,
			"approved_at": nil,
			"updated_at":  at,
		}).
		Where(sq.Eq{"id": survey.ID}).
		Suffix("RETURNING " + joinColumns(surveyColumns)).
		ToSql()
}

// Update writes the editable fields of survey. Any edit sends the survey back
// to moderation.
func (r *SurveyRepository) Update(ctx context.Context, survey *types.Survey) (*types.Survey, error) {
	query, args, err := updateSurveyQuery(survey, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate survey update query: %w", err)
	}

	var updated types.Survey
	err = pgxscan.Get(ctx, r.pool, &updated, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to update survey: %w", err)
	}

	return &updated, nil
}

func setSurveyStatusQuery(surveyID string, status types.SurveyStatus, isPublic *bool, approvedBy string, at time.Time) (string, []any, error) {
	values := map[string]any{
		"status":      status,
		"approved_by": approvedBy,
		"approved_at": at,
		"updated_at":  at,
	}
	if isPublic != nil {
		values["is_public"] = *isPublic
	}

	return psql().
		Update(surveyTableName).
		SetMap(values).
		Where(sq.Eq{"id": surveyID}).
		Suffix("RETURNING " + joinColumns(surveyColumns)).
		ToSql()
}

func (r *SurveyRepository) SetStatus(ctx context.Context, surveyID string, status types.SurveyStatus, isPublic *bool, approvedBy string) (*types.Survey, error) {
	query, args, err := setSurveyStatusQuery(surveyID, status, isPublic, approvedBy, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate survey status query: %w", err)
	}

	var survey types.Survey
	err = pgxscan.Get(ctx, r.pool, &survey, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrSurveyNotFound
		}
		return nil, classifyError(err, "failed to update survey status")
	}

	return &survey, nil
}

// DeleteByTitlePrefix removes surveys whose title starts with prefix, along
// with their responses.
func (r *SurveyRepository) DeleteByTitlePrefix(ctx context.Context, prefix string) (int64, error) {
	query, args, err := psql().
		Delete(surveyTableName).
		Where(sq.Like{"title": prefix + "%"}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate survey delete query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete surveys: %w", err)
	}

	return tag.RowsAffected(), nil
}
