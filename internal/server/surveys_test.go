package server

import (
	"net/http"
	"testing"

	"donkeymap/pkg/types"
)

func approvedSurvey() *types.Survey {
	return &types.Survey{
		ID:        "s1",
		Title:     "Working donkeys",
		CreatedBy: "admin",
		Status:    types.SurveyStatusApproved,
		IsPublic:  true,
		Questions: []types.Question{
			{ID: "count", Title: "How many donkeys?", Type: types.QuestionTypeNumber, Required: true, IsPublic: true},
			{ID: "owner", Title: "Owner name", Type: types.QuestionTypeText},
		},
	}
}

func TestCreateSurveyIsPending(t *testing.T) {
	env := newTestEnv(t)

	body := `{"title":"  Donkey census  ","status":"approved","is_public":true,
		"questions":[{"title":"How many?","type":"number","required":true}]}`

	rec := env.do(t, http.MethodPost, "/api/surveys", collectorToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	if len(env.surveys.created) != 1 {
		t.Fatalf("created %d surveys, want 1", len(env.surveys.created))
	}

	created := env.surveys.created[0]
	if created.Status != types.SurveyStatusPending {
		t.Fatalf("status = %q, want pending", created.Status)
	}
	if created.Title != "Donkey census" || created.CreatedBy != "collector" {
		t.Fatalf("created = %+v", created)
	}
	if len(created.Questions) != 1 || created.Questions[0].ID == "" {
		t.Fatalf("questions were not normalised: %+v", created.Questions)
	}
}

func TestCreateSurveyValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{name: "empty", body: `{}`, fields: []string{"title", "questions"}},
		{name: "blank title", body: `{"title":"  ","questions":[{"title":"Q"}]}`, fields: []string{"title"}},
		{name: "no questions", body: `{"title":"T","questions":[]}`, fields: []string{"questions"}},
		{name: "questions not array", body: `{"title":"T","questions":{"title":"Q"}}`, fields: []string{"questions"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(t, http.MethodPost, "/api/surveys", collectorToken, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}

			body := decodeBody[types.ErrorResponse](t, rec)
			for _, f := range tt.fields {
				if body.Fields[f] == "" {
					t.Errorf("missing field error %q in %v", f, body.Fields)
				}
			}

			if len(env.surveys.created) != 0 {
				t.Fatal("survey was written despite validation errors")
			}
		})
	}
}

func TestCreateSurveyRefusesRejectedUsers(t *testing.T) {
	env := newTestEnv(t)
	env.users.users["collector"].Status = types.UserStatusRejected

	rec := env.do(t, http.MethodPost, "/api/surveys", collectorToken, `{"title":"T","questions":[{"title":"Q"}]}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestMySurveysIsNotShadowedBySurveyLookup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/surveys/mine", collectorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if env.surveys.mineFor != "collector" {
		t.Fatalf("ByCreator called for %q", env.surveys.mineFor)
	}
}

func TestGetSurveyVisibility(t *testing.T) {
	env := newTestEnv(t)
	env.surveys.surveys["pending"] = &types.Survey{ID: "pending", Title: "Draft", CreatedBy: "collector", Status: types.SurveyStatusPending}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "anonymous", want: http.StatusNotFound},
		{name: "creator", token: collectorToken, want: http.StatusOK},
		{name: "admin", token: adminToken, want: http.StatusOK},
	}

	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, "/api/surveys/pending", tt.token, nil)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}

func TestGetApprovedSurveyWithoutAuthConfig(t *testing.T) {
	env := newTestEnv(t, func(c *types.Config) {
		c.CognitoClientID = ""
	})
	env.surveys.surveys["s1"] = approvedSurvey()
	env.surveys.surveys["pending"] = &types.Survey{ID: "pending", Title: "Draft", CreatedBy: "collector", Status: types.SurveyStatusPending}

	rec := env.do(t, http.MethodGet, "/api/surveys/s1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decodeBody[types.Survey](t, rec)
	if got.ID != "s1" {
		t.Fatalf("id = %q, want %q", got.ID, "s1")
	}

	rec = env.do(t, http.MethodGet, "/api/surveys/pending", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("pending status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSubmitResponseAwardsPoints(t *testing.T) {
	env := newTestEnv(t)
	env.surveys.surveys["s1"] = approvedSurvey()

	body := map[string]any{
		"responses": map[string]any{"count": 4, "owner": "Abebe"},
		"location":  map[string]any{"latitude": 9.03, "longitude": 38.74, "accuracy": 12.5},
	}

	rec := env.do(t, http.MethodPost, "/api/surveys/s1", collectorToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	result := decodeBody[types.SubmitResponseResult](t, rec)
	if result.PointsEarned != 60 {
		t.Fatalf("points = %d, want 60", result.PointsEarned)
	}

	if len(env.responses.submitted) != 1 {
		t.Fatalf("submitted %d responses, want 1", len(env.responses.submitted))
	}
	resp := env.responses.submitted[0]
	if resp.SubmittedBy != "collector" || resp.Latitude == nil || *resp.Latitude != 9.03 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestSubmitResponseValidation(t *testing.T) {
	env := newTestEnv(t)
	env.surveys.surveys["s1"] = approvedSurvey()

	rec := env.do(t, http.MethodPost, "/api/surveys/s1", collectorToken, map[string]any{
		"responses": map[string]any{"owner": "Abebe"},
		"location":  map[string]any{"latitude": 123.0, "longitude": 38.74},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(env.responses.submitted) != 0 {
		t.Fatal("response was stored despite validation errors")
	}
}

func TestSubmitResponseRequiresApprovedSurvey(t *testing.T) {
	env := newTestEnv(t)
	sv := approvedSurvey()
	sv.Status = types.SurveyStatusPending
	env.surveys.surveys["s1"] = sv

	rec := env.do(t, http.MethodPost, "/api/surveys/s1", collectorToken, map[string]any{
		"responses": map[string]any{"count": 1},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestUpdateSurveyOnlyByCreator(t *testing.T) {
	env := newTestEnv(t)
	env.surveys.surveys["s1"] = approvedSurvey()

	rec := env.do(t, http.MethodPatch, "/api/surveys/s1", collectorToken, map[string]any{"title": "Mine now"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = env.do(t, http.MethodPatch, "/api/surveys/s1", adminToken, map[string]any{"title": "Renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("creator status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	updated := decodeBody[types.Survey](t, rec)
	if updated.Title != "Renamed" || updated.Status != types.SurveyStatusPending {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestMoveQuestion(t *testing.T) {
	env := newTestEnv(t)
	env.surveys.surveys["s1"] = approvedSurvey()

	rec := env.do(t, http.MethodPost, "/api/surveys/s1/questions/move", adminToken, map[string]int{"from": 1, "to": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	questions := decodeBody[[]types.Question](t, rec)
	if len(questions) != 2 || questions[0].ID != "owner" || questions[1].ID != "count" {
		t.Fatalf("questions = %+v", questions)
	}

	rec = env.do(t, http.MethodPost, "/api/surveys/s1/questions/move", adminToken, map[string]int{"from": 0, "to": 5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("out of range status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminModerateSurvey(t *testing.T) {
	env := newTestEnv(t)
	env.surveys.surveys["s1"] = &types.Survey{ID: "s1", Status: types.SurveyStatusPending}

	rec := env.do(t, http.MethodPatch, "/api/admin/surveys", adminToken, map[string]any{"id": "s1", "status": "published"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status accepted: %d", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/api/admin/surveys", adminToken, map[string]any{"id": "s1", "status": "approved", "is_public": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	sv := env.surveys.surveys["s1"]
	if sv.Status != types.SurveyStatusApproved || sv.ApprovedBy == nil || *sv.ApprovedBy != "admin" {
		t.Fatalf("survey = %+v", sv)
	}

	rec = env.do(t, http.MethodPatch, "/api/admin/surveys", adminToken, map[string]any{"id": "missing", "status": "rejected"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing survey status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
