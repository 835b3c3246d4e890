package survey

import (
	"encoding/json"
	"testing"

	"donkeymap/pkg/types"
)

func TestParseQuestions(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		wantField string
		wantCount int
	}{
		{"missing", ``, "questions", 0},
		{"null", `null`, "questions", 0},
		{"object instead of array", `{"title":"Count"}`, "questions", 0},
		{"string instead of array", `"questions"`, "questions", 0},
		{"empty array", `[]`, "questions", 0},
		{"blank title", `[{"id":"q1","title":"  ","type":"text"}]`, "questions[0].title", 1},
		{"unknown type", `[{"id":"q1","title":"Colour","type":"colour"}]`, "questions[0].type", 1},
		{"select without options", `[{"id":"q1","title":"Health","type":"select","options":[" "]}]`, "questions[0].options", 1},
		{"duplicate ids", `[{"id":"q1","title":"A"},{"id":"q1","title":"B"}]`, "questions[1].id", 2},
		{"valid", `[{"id":"q1","title":"How many donkeys?","type":"number","required":true}]`, "", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := FieldErrors{}
			got := ParseQuestions(json.RawMessage(tc.raw), errs)

			if tc.wantField == "" && len(errs) != 0 {
				t.Fatalf("expected no errors, got %v", errs)
			}
			if tc.wantField != "" {
				if _, ok := errs[tc.wantField]; !ok {
					t.Fatalf("expected error on %q, got %v", tc.wantField, errs)
				}
			}
			if len(got) != tc.wantCount {
				t.Errorf("expected %d questions, got %d", tc.wantCount, len(got))
			}
		})
	}
}

func TestNormalizeQuestionsAssignsDefaults(t *testing.T) {
	questions := []types.Question{
		{Title: " Where is the donkey? ", Type: types.QuestionTypeLocation},
		{ID: "q2", Title: "Owner", Options: []string{"stray"}},
		{ID: "q3", Title: "Breed", Type: types.QuestionTypeSelect, Options: []string{" Poitou ", "", "Andalusian"}},
	}

	errs := FieldErrors{}
	NormalizeQuestions(questions, errs)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if questions[0].ID == "" {
		t.Error("expected an id to be assigned")
	}
	if questions[0].Title != "Where is the donkey?" {
		t.Errorf("expected trimmed title, got %q", questions[0].Title)
	}
	if questions[0].CaptureCurrentLocation == nil || !*questions[0].CaptureCurrentLocation {
		t.Error("expected location questions to capture the current location by default")
	}

	if questions[1].Type != types.QuestionTypeText {
		t.Errorf("expected default type text, got %q", questions[1].Type)
	}
	if questions[1].Options != nil {
		t.Error("expected options to be dropped for text questions")
	}

	if len(questions[2].Options) != 2 || questions[2].Options[0] != "Poitou" {
		t.Errorf("unexpected options %v", questions[2].Options)
	}
}

func TestValidateTitle(t *testing.T) {
	errs := FieldErrors{}
	ValidateTitle("   ", errs)
	if _, ok := errs["title"]; !ok {
		t.Error("expected title error")
	}

	errs = FieldErrors{}
	ValidateTitle("Donkey census", errs)
	if len(errs) != 0 {
		t.Errorf("unexpected errors %v", errs)
	}
}
