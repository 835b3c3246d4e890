package survey

import (
	"encoding/json"
	"reflect"
	"testing"

	"donkeymap/internal/utils"
	"donkeymap/pkg/types"
)

func testQuestions() []types.Question {
	return []types.Question{
		{ID: "count", Title: "How many donkeys?", Type: types.QuestionTypeNumber, Required: true, IsPublic: true},
		{ID: "health", Title: "Health", Type: types.QuestionTypeSelect, Options: []string{"good", "poor"}, IsPublic: true},
		{ID: "needs", Title: "Needs", Type: types.QuestionTypeMultiselect, Options: []string{"water", "farrier", "vet"}},
		{ID: "seen", Title: "Date seen", Type: types.QuestionTypeDate},
		{ID: "where", Title: "Where", Type: types.QuestionTypeLocation},
		{ID: "owner", Title: "Owner name", Type: types.QuestionTypeText},
	}
}

func decodeAnswers(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestValidateAnswers(t *testing.T) {
	testCases := []struct {
		name      string
		answers   string
		wantField string
		answered  int
	}{
		{"required missing", `{"owner":"Ana"}`, "responses.count", 1},
		{"required blank", `{"count":" "}`, "responses.count", 0},
		{"number from string", `{"count":"3"}`, "", 1},
		{"not a number", `{"count":"three"}`, "responses.count", 0},
		{"select outside options", `{"count":1,"health":"great"}`, "responses.health", 1},
		{"multiselect outside options", `{"count":1,"needs":["water","hay"]}`, "responses.needs", 1},
		{"multiselect not a list", `{"count":1,"needs":"water"}`, "responses.needs", 1},
		{"bad date", `{"count":1,"seen":"yesterday"}`, "responses.seen", 1},
		{"bad location", `{"count":1,"where":{"latitude":91,"longitude":0}}`, "responses.where", 1},
		{"text not a string", `{"count":1,"owner":7}`, "responses.owner", 1},
		{"all valid", `{"count":2,"health":"poor","needs":["vet","vet"],"seen":"2024-06-01","where":{"latitude":-1.28,"longitude":36.82},"owner":" Ana "}`, "", 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := FieldErrors{}
			clean, answered := ValidateAnswers(testQuestions(), decodeAnswers(t, tc.answers), errs)

			if tc.wantField == "" && len(errs) != 0 {
				t.Fatalf("expected no errors, got %v", errs)
			}
			if tc.wantField != "" {
				if _, ok := errs[tc.wantField]; !ok {
					t.Fatalf("expected error on %q, got %v", tc.wantField, errs)
				}
			}
			if answered != tc.answered {
				t.Errorf("expected %d answered, got %d", tc.answered, answered)
			}
			if len(clean) != answered {
				t.Errorf("expected %d clean answers, got %d", answered, len(clean))
			}
		})
	}
}

func TestValidateAnswersNormalises(t *testing.T) {
	errs := FieldErrors{}
	clean, _ := ValidateAnswers(testQuestions(), decodeAnswers(t, `{"count":"4","needs":["vet","vet","water"],"seen":"2024-06-01T10:00:00Z","owner":" Ana ","unknown":"x"}`), errs)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}

	if clean["count"] != 4.0 {
		t.Errorf("expected numeric count, got %v", clean["count"])
	}
	if !reflect.DeepEqual(clean["needs"], []string{"vet", "water"}) {
		t.Errorf("expected deduplicated needs, got %v", clean["needs"])
	}
	if clean["seen"] != "2024-06-01" {
		t.Errorf("expected date only, got %v", clean["seen"])
	}
	if clean["owner"] != "Ana" {
		t.Errorf("expected trimmed owner, got %v", clean["owner"])
	}
	if _, ok := clean["unknown"]; ok {
		t.Error("expected answers to unknown questions to be dropped")
	}
}

func TestValidateLocation(t *testing.T) {
	errs := FieldErrors{}
	ValidateLocation("location", &types.Location{Latitude: 12, Longitude: 181, Accuracy: utils.Float64Ptr(-1)}, errs)
	if _, ok := errs["location.longitude"]; !ok {
		t.Error("expected longitude error")
	}
	if _, ok := errs["location.accuracy"]; !ok {
		t.Error("expected accuracy error")
	}
	if _, ok := errs["location.latitude"]; ok {
		t.Error("did not expect latitude error")
	}

	errs = FieldErrors{}
	ValidateLocation("location", nil, errs)
	if len(errs) != 0 {
		t.Error("expected a nil location to be accepted")
	}
}

func TestPublicAnswers(t *testing.T) {
	answers := map[string]any{"count": 2.0, "health": "good", "owner": "Ana"}
	got := PublicAnswers(testQuestions(), answers)
	want := map[string]any{"count": 2.0, "health": "good"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PublicAnswers() = %v, want %v", got, want)
	}
}
