package types

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrClaimNotFound      = errors.New("claim not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrClaimNotPending    = errors.New("claim is no longer processing")

	// ErrMissingUserRecord is returned when a write references a user row that
	// has not been provisioned yet.
	ErrMissingUserRecord = errors.New("user record missing")
)

// InsufficientPointsError reports how many more points a claim needs.
type InsufficientPointsError struct {
	Needed int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("%s: %d more needed", ErrInsufficientPoints, e.Needed)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}
