package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"donkeymap/internal/survey"
	"donkeymap/internal/utils"
	"donkeymap/pkg/types"
)

type surveyWriter interface {
	Create(ctx context.Context, survey *types.Survey) error
	SetStatus(ctx context.Context, surveyID string, status types.SurveyStatus, isPublic *bool, approvedBy string) (*types.Survey, error)
	DeleteByTitlePrefix(ctx context.Context, prefix string) (int64, error)
}

type responseWriter interface {
	Submit(ctx context.Context, response *types.SurveyResponse, points int) error
}

// DemoTitlePrefix marks seeded surveys so a reset only removes those.
const DemoTitlePrefix = "[seed] "

var demoSurveyTitles = []string{
	"Working donkey census",
	"Market day donkey count",
	"Water point survey",
	"Harness and wound check",
	"Donkey ownership and use",
}

type weightedSurveyStatus struct {
	Status types.SurveyStatus
	Weight int
}

var weightedStatuses = []weightedSurveyStatus{
	{Status: types.SurveyStatusPending, Weight: 30},
	{Status: types.SurveyStatusApproved, Weight: 60},
	{Status: types.SurveyStatusRejected, Weight: 10},
}

// Rough bounding box of the Ethiopian highlands, where most demo points land.
const (
	minLatitude  = 7.0
	maxLatitude  = 13.5
	minLongitude = 36.0
	maxLongitude = 41.5
)

func demoQuestions() []types.Question {
	return []types.Question{
		{ID: utils.NewQuestionID(), Title: "How many donkeys did you see?", Type: types.QuestionTypeNumber, Required: true, IsPublic: true},
		{ID: utils.NewQuestionID(), Title: "What were they doing?", Type: types.QuestionTypeSelect, IsPublic: true, Options: []string{"Carrying goods", "Pulling a cart", "Resting", "Grazing"}},
		{ID: utils.NewQuestionID(), Title: "Visible health problems", Type: types.QuestionTypeMultiselect, Options: []string{"Wounds", "Lameness", "Underweight", "None"}},
		{ID: utils.NewQuestionID(), Title: "Owner contact", Type: types.QuestionTypeText},
		{ID: utils.NewQuestionID(), Title: "Where was this?", Type: types.QuestionTypeLocation, Required: true, CaptureCurrentLocation: utils.BoolPtr(true)},
	}
}

// SeedDemoSurveys creates count demo surveys with a spread of moderation
// states, and responses for the approved ones.
func SeedDemoSurveys(
	ctx context.Context,
	surveys surveyWriter,
	responses responseWriter,
	policy survey.PointsPolicy,
	count int,
	reset bool,
) error {
	if count <= 0 {
		fmt.Println("Skipping demo surveys seed because count <= 0")
		return nil
	}

	if reset {
		deleted, err := surveys.DeleteByTitlePrefix(ctx, DemoTitlePrefix)
		if err != nil {
			return fmt.Errorf("failed to reset seeded demo surveys: %w", err)
		}
		fmt.Printf("Reset seeded demo surveys: %d deleted\n", deleted)
	}

	collectors := demoCollectorIDs()
	if len(collectors) == 0 {
		return fmt.Errorf("no demo collectors available; seed demo users first")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	created, answered := 0, 0
	for i := 0; i < count; i++ {
		sv := &types.Survey{
			Title:     DemoTitlePrefix + demoSurveyTitles[rng.Intn(len(demoSurveyTitles))],
			Questions: demoQuestions(),
			CreatedBy: collectors[rng.Intn(len(collectors))],
			IsPublic:  rng.Intn(100) < 80,
		}

		if err := surveys.Create(ctx, sv); err != nil {
			return fmt.Errorf("failed to create demo survey %d: %w", i+1, err)
		}
		created++

		status := pickWeightedStatus(rng)
		if status == types.SurveyStatusPending {
			continue
		}

		if _, err := surveys.SetStatus(ctx, sv.ID, status, nil, DemoAdminID); err != nil {
			return fmt.Errorf("failed to moderate demo survey %s: %w", sv.ID, err)
		}
		if status != types.SurveyStatusApproved {
			continue
		}

		for j := rng.Intn(8) + 2; j > 0; j-- {
			response, n := demoResponse(rng, sv, collectors[rng.Intn(len(collectors))])
			if err := responses.Submit(ctx, response, policy.Award(n)); err != nil {
				return fmt.Errorf("failed to submit demo response for survey %s: %w", sv.ID, err)
			}
			answered++
		}
	}

	fmt.Printf("Demo surveys seeded: %d created, %d responses\n", created, answered)
	return nil
}

func demoResponse(rng *rand.Rand, sv *types.Survey, respondent string) (*types.SurveyResponse, int) {
	loc := types.Location{
		Latitude:  minLatitude + rng.Float64()*(maxLatitude-minLatitude),
		Longitude: minLongitude + rng.Float64()*(maxLongitude-minLongitude),
		Accuracy:  utils.Float64Ptr(5 + rng.Float64()*45),
	}

	answers := make(map[string]any, len(sv.Questions))
	for _, q := range sv.Questions {
		switch q.Type {
		case types.QuestionTypeNumber:
			answers[q.ID] = float64(rng.Intn(25) + 1)
		case types.QuestionTypeSelect:
			answers[q.ID] = q.Options[rng.Intn(len(q.Options))]
		case types.QuestionTypeMultiselect:
			answers[q.ID] = []any{q.Options[rng.Intn(len(q.Options))]}
		case types.QuestionTypeLocation:
			answers[q.ID] = map[string]any{"latitude": loc.Latitude, "longitude": loc.Longitude}
		case types.QuestionTypeText:
			if rng.Intn(100) < 40 {
				answers[q.ID] = "Asked at the market"
			}
		}
	}

	return &types.SurveyResponse{
		SurveyID:    sv.ID,
		SubmittedBy: respondent,
		Responses:   answers,
		Latitude:    utils.Float64Ptr(loc.Latitude),
		Longitude:   utils.Float64Ptr(loc.Longitude),
		Accuracy:    loc.Accuracy,
	}, len(answers)
}

func pickWeightedStatus(rng *rand.Rand) types.SurveyStatus {
	total := 0
	for _, item := range weightedStatuses {
		total += item.Weight
	}

	if total == 0 {
		return types.SurveyStatusPending
	}

	roll := rng.Intn(total)
	running := 0
	for _, item := range weightedStatuses {
		running += item.Weight
		if roll < running {
			return item.Status
		}
	}

	return types.SurveyStatusPending
}
