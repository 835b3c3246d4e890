package types

import "time"

type SurveyStatus string

const (
	SurveyStatusPending  SurveyStatus = "pending"
	SurveyStatusApproved SurveyStatus = "approved"
	SurveyStatusRejected SurveyStatus = "rejected"
)

type QuestionType string

const (
	QuestionTypeText        QuestionType = "text"
	QuestionTypeNumber      QuestionType = "number"
	QuestionTypeSelect      QuestionType = "select"
	QuestionTypeMultiselect QuestionType = "multiselect"
	QuestionTypeDate        QuestionType = "date"
	QuestionTypeLocation    QuestionType = "location"
)

// Question is embedded in the survey's questions jsonb column.
type Question struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        QuestionType `json:"type"`
	Required    bool         `json:"required"`
	IsPublic    bool         `json:"isPublic"`
	Options     []string     `json:"options,omitempty"`

	// location questions only
	CaptureCurrentLocation *bool `json:"captureCurrentLocation,omitempty"`
	AllowMapSelection      bool  `json:"allowMapSelection,omitempty"`
}

type Survey struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description"`
	Questions   []Question   `db:"questions" json:"questions"`
	CreatedBy   string       `db:"created_by" json:"created_by"`
	Status      SurveyStatus `db:"status" json:"status"`
	ApprovedBy  *string      `db:"approved_by" json:"approved_by"`
	ApprovedAt  *time.Time   `db:"approved_at" json:"approved_at"`
	IsPublic    bool         `db:"is_public" json:"is_public"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// Visible reports whether the survey can appear on public listings and the map.
func (s *Survey) Visible() bool {
	return s.Status == SurveyStatusApproved && s.IsPublic
}

// PendingSurvey is a survey awaiting moderation joined with its creator.
type PendingSurvey struct {
	Survey
	CreatorName  *string `db:"creator_name" json:"creator_name"`
	CreatorEmail *string `db:"creator_email" json:"creator_email"`
}
