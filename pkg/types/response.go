package types

import "time"

type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

type SurveyResponse struct {
	ID          string         `db:"id" json:"id"`
	SurveyID    string         `db:"survey_id" json:"survey_id"`
	SubmittedBy string         `db:"submitted_by" json:"submitted_by"`
	Responses   map[string]any `db:"responses" json:"responses"`
	Latitude    *float64       `db:"latitude" json:"latitude"`
	Longitude   *float64       `db:"longitude" json:"longitude"`
	Accuracy    *float64       `db:"accuracy" json:"accuracy"`
	SubmittedAt time.Time      `db:"submitted_at" json:"submitted_at"`
}

// MapPoint is one located response of a visible survey.
type MapPoint struct {
	ResponseID  string         `json:"id"`
	SurveyID    string         `json:"survey_id"`
	SurveyTitle string         `json:"survey_title"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Answers     map[string]any `json:"answers"`
}

// LocatedResponse is a response joined with the survey it answers.
type LocatedResponse struct {
	SurveyResponse
	SurveyTitle     string     `db:"survey_title"`
	SurveyQuestions []Question `db:"survey_questions"`
}
