package types

import "encoding/json"

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error      string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
	Needed     int               `json:"needed,omitempty"`
	RetryAfter int               `json:"retry_after,omitempty"`
}

type CreateSurveyRequest struct {
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Questions   json.RawMessage `json:"questions"`
	IsPublic    bool            `json:"is_public"`
}

type UpdateSurveyRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Questions   json.RawMessage `json:"questions"`
	IsPublic    *bool           `json:"is_public"`
}

type MoveQuestionRequest struct {
	From int `form:"from" json:"from"`
	To   int `form:"to" json:"to"`
}

type SubmitResponseRequest struct {
	Responses map[string]any `json:"responses"`
	Location  *Location      `json:"location"`
}

type SubmitResponseResult struct {
	Response     *SurveyResponse `json:"response"`
	PointsEarned int             `json:"points_earned"`
}

type ModerateSurveyRequest struct {
	ID       string       `form:"id" json:"id"`
	Status   SurveyStatus `form:"status" json:"status"`
	IsPublic *bool        `form:"is_public" json:"is_public"`
}

type ModerateUserRequest struct {
	ID     string     `form:"id" json:"id"`
	Status UserStatus `form:"status" json:"status"`
}

type ModerateClaimRequest struct {
	ID     string      `form:"id" json:"id"`
	Status ClaimStatus `form:"status" json:"status"`
}

type DirectCreateUserRequest struct {
	UserID string   `form:"userId" json:"userId"`
	Email  string   `form:"email" json:"email"`
	Name   string   `form:"name" json:"name"`
	Role   UserRole `form:"role" json:"role"`
}

type ProvisionResult struct {
	Success bool   `json:"success"`
	Created bool   `json:"created,omitempty"`
	Exists  bool   `json:"exists,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthResult tells the client where the flow continues.
type AuthResult struct {
	Step       string `json:"step"`
	Redirect   string `json:"redirect,omitempty"`
	Email      string `json:"email,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Auth flow steps reported in AuthResult.Step.
const (
	AuthStepOTPSent       = "otp-sent"
	AuthStepAuthenticated = "authenticated"
	AuthStepConfirmed     = "confirmed"
	AuthStepResetSent     = "reset-sent"
	AuthStepPasswordReset = "password-reset"
	AuthStepSignedOut     = "signed-out"
)

type LoginForm struct {
	Email          string `form:"email" json:"email"`
	Password       string `form:"password" json:"password"`
	RedirectedFrom string `form:"redirectedFrom" json:"redirectedFrom"`
}

type SignupForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Name     string `form:"name" json:"name"`
}

type EmailForm struct {
	Email string `form:"email" json:"email"`
}

type CodeForm struct {
	Email string `form:"email" json:"email"`
	Code  string `form:"code" json:"code"`
}

type ResetPasswordForm struct {
	Email    string `form:"email" json:"email"`
	Code     string `form:"code" json:"code"`
	Password string `form:"password" json:"password"`
}
