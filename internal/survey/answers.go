package survey

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"donkeymap/pkg/types"
)

const (
	msgRequired = "This question is required."
)

// ValidateLocation checks coordinate ranges of a capture location.
func ValidateLocation(field string, loc *types.Location, errs FieldErrors) {
	if loc == nil {
		return
	}
	if !validCoordinate(loc.Latitude, 90) {
		errs.add(field+".latitude", "Latitude must be between -90 and 90.")
	}
	if !validCoordinate(loc.Longitude, 180) {
		errs.add(field+".longitude", "Longitude must be between -180 and 180.")
	}
	if loc.Accuracy != nil && (*loc.Accuracy < 0 || math.IsNaN(*loc.Accuracy)) {
		errs.add(field+".accuracy", "Accuracy must not be negative.")
	}
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}

// ValidateAnswers checks answers keyed by question id against the question
// definitions. It returns the answers that belong to the survey, normalised,
// and the number of questions answered.
func ValidateAnswers(questions []types.Question, answers map[string]any, errs FieldErrors) (map[string]any, int) {
	clean := make(map[string]any, len(questions))
	answered := 0

	for _, q := range questions {
		field := "responses." + q.ID
		raw, ok := answers[q.ID]
		if !ok || empty(raw) {
			if q.Required {
				errs.add(field, msgRequired)
			}
			continue
		}

		value, msg := normalizeAnswer(q, raw)
		if msg != "" {
			errs.add(field, msg)
			continue
		}

		clean[q.ID] = value
		answered++
	}

	return clean, answered
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func normalizeAnswer(q types.Question, raw any) (any, string) {
	switch q.Type {
	case types.QuestionTypeText:
		s, ok := raw.(string)
		if !ok {
			return nil, "Enter text."
		}
		return strings.TrimSpace(s), ""

	case types.QuestionTypeNumber:
		switch n := raw.(type) {
		case float64:
			return n, ""
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, "Enter a number."
			}
			return f, ""
		}
		return nil, "Enter a number."

	case types.QuestionTypeSelect:
		s, ok := raw.(string)
		if !ok || !contains(q.Options, s) {
			return nil, "Choose one of the listed options."
		}
		return s, ""

	case types.QuestionTypeMultiselect:
		list, ok := raw.([]any)
		if !ok {
			return nil, "Choose from the listed options."
		}
		picked := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok || !contains(q.Options, s) {
				return nil, "Choose from the listed options."
			}
			if !contains(picked, s) {
				picked = append(picked, s)
			}
		}
		return picked, ""

	case types.QuestionTypeDate:
		s, ok := raw.(string)
		if !ok {
			return nil, "Enter a date."
		}
		s = strings.TrimSpace(s)
		if _, err := time.Parse(time.DateOnly, s); err == nil {
			return s, ""
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC().Format(time.DateOnly), ""
		}
		return nil, "Enter a date as YYYY-MM-DD."

	case types.QuestionTypeLocation:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, "Share a location."
		}
		lat, latOK := m["latitude"].(float64)
		lng, lngOK := m["longitude"].(float64)
		if !latOK || !lngOK || !validCoordinate(lat, 90) || !validCoordinate(lng, 180) {
			return nil, "Location needs a valid latitude and longitude."
		}
		return map[string]any{"latitude": lat, "longitude": lng}, ""
	}

	return nil, fmt.Sprintf("Unsupported question type %q.", q.Type)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// PublicAnswers keeps only the answers to questions marked public.
func PublicAnswers(questions []types.Question, answers map[string]any) map[string]any {
	out := make(map[string]any)
	for _, q := range questions {
		if !q.IsPublic {
			continue
		}
		if v, ok := answers[q.ID]; ok {
			out[q.ID] = v
		}
	}
	return out
}
