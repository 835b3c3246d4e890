// Package survey holds the rules for survey definitions and the answers
// submitted against them.
package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"donkeymap/internal/utils"
	"donkeymap/pkg/types"
)

// FieldErrors maps a request field to a user-facing message.
type FieldErrors map[string]string

func (f FieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

var questionTypes = []types.QuestionType{
	types.QuestionTypeText,
	types.QuestionTypeNumber,
	types.QuestionTypeSelect,
	types.QuestionTypeMultiselect,
	types.QuestionTypeDate,
	types.QuestionTypeLocation,
}

// QuestionTypes lists the supported question types in display order.
func QuestionTypes() []types.QuestionType {
	out := make([]types.QuestionType, len(questionTypes))
	copy(out, questionTypes)
	return out
}

func validType(t types.QuestionType) bool {
	for _, v := range questionTypes {
		if v == t {
			return true
		}
	}
	return false
}

func hasChoices(t types.QuestionType) bool {
	return t == types.QuestionTypeSelect || t == types.QuestionTypeMultiselect
}

// ValidateTitle checks the survey title.
func ValidateTitle(title string, errs FieldErrors) {
	if strings.TrimSpace(title) == "" {
		errs.add("title", "Title is required.")
	}
}

// ParseQuestions decodes a raw questions payload and normalises each entry.
// A missing payload or anything other than a JSON array is rejected.
func ParseQuestions(raw json.RawMessage, errs FieldErrors) []types.Question {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		errs.add("questions", "Questions are required.")
		return nil
	}

	if trimmed[0] != '[' {
		errs.add("questions", "Questions must be an array.")
		return nil
	}

	var questions []types.Question
	if err := json.Unmarshal(trimmed, &questions); err != nil {
		errs.add("questions", "Questions are malformed.")
		return nil
	}

	if len(questions) == 0 {
		errs.add("questions", "Add at least one question.")
		return nil
	}

	NormalizeQuestions(questions, errs)
	return questions
}

// NormalizeQuestions trims text, assigns missing ids and validates each question in place.
func NormalizeQuestions(questions []types.Question, errs FieldErrors) {
	seen := make(map[string]bool, len(questions))

	for i := range questions {
		q := &questions[i]
		field := fmt.Sprintf("questions[%d]", i)

		q.ID = strings.TrimSpace(q.ID)
		if q.ID == "" {
			q.ID = utils.NewQuestionID()
		}
		if seen[q.ID] {
			errs.add(field+".id", "Question ids must be unique.")
		}
		seen[q.ID] = true

		q.Title = strings.TrimSpace(q.Title)
		q.Description = strings.TrimSpace(q.Description)
		if q.Title == "" {
			errs.add(field+".title", "Question title is required.")
		}

		if q.Type == "" {
			q.Type = types.QuestionTypeText
		}
		if !validType(q.Type) {
			errs.add(field+".type", fmt.Sprintf("Unknown question type %q.", q.Type))
			continue
		}

		if hasChoices(q.Type) {
			options := make([]string, 0, len(q.Options))
			for _, o := range q.Options {
				if o = strings.TrimSpace(o); o != "" {
					options = append(options, o)
				}
			}
			q.Options = options
			if len(q.Options) == 0 {
				errs.add(field+".options", "Add at least one option.")
			}
		} else {
			q.Options = nil
		}

		if q.Type == types.QuestionTypeLocation {
			if q.CaptureCurrentLocation == nil {
				q.CaptureCurrentLocation = utils.BoolPtr(true)
			}
		} else {
			q.CaptureCurrentLocation = nil
			q.AllowMapSelection = false
		}
	}
}
