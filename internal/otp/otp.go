// Package otp tracks the state of an email one-time-password exchange and
// the resend cooldown the identity provider imposes on it.
package otp

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// DefaultCooldown applies when the provider does not say how long to wait.
const DefaultCooldown = 60 * time.Second

type Stage string

const (
	StageCollecting    Stage = "collecting-credentials"
	StageSent          Stage = "otp-sent"
	StageVerifying     Stage = "verifying"
	StageAuthenticated Stage = "authenticated"
)

type Flow string

const (
	FlowSignup   Flow = "signup"
	FlowSignin   Flow = "signin"
	FlowRecovery Flow = "recovery"
)

var ErrNoCodeSent = errors.New("no verification code has been requested")

// State is kept in an encrypted cookie between requests. CooldownUntil is an
// absolute unix time in milliseconds so a reload cannot reset the countdown.
type State struct {
	Email         string
	Flow          Flow
	Stage         Stage
	Session       string
	CooldownUntil int64
}

// Sent records a delivered code for email.
func (s *State) Sent(email string, flow Flow, session string) {
	s.Email = strings.ToLower(strings.TrimSpace(email))
	s.Flow = flow
	s.Stage = StageSent
	s.Session = session
}

// BeginVerify moves to verifying. A failed verification may be retried, so
// verifying is also accepted.
func (s *State) BeginVerify(email string, flow Flow) error {
	if s.Stage != StageSent && s.Stage != StageVerifying {
		return ErrNoCodeSent
	}
	if s.Flow != flow || s.Email != strings.ToLower(strings.TrimSpace(email)) {
		return ErrNoCodeSent
	}
	s.Stage = StageVerifying
	return nil
}

// Complete marks the exchange finished and clears the cooldown.
func (s *State) Complete() {
	s.Stage = StageAuthenticated
	s.Session = ""
	s.ClearCooldown()
}

// StartCooldown blocks resends for d from now.
func (s *State) StartCooldown(now time.Time, d time.Duration) {
	s.CooldownUntil = now.Add(d).UnixMilli()
}

func (s *State) ClearCooldown() {
	s.CooldownUntil = 0
}

// CooldownActive reports whether a resend attempted at now must be refused.
func (s *State) CooldownActive(now time.Time) bool {
	return s.CooldownUntil > 0 && now.UnixMilli() < s.CooldownUntil
}

// Remaining is the cooldown left at now, rounded up to whole seconds for display.
func (s *State) Remaining(now time.Time) int {
	if !s.CooldownActive(now) {
		return 0
	}
	ms := s.CooldownUntil - now.UnixMilli()
	return int(math.Ceil(float64(ms) / 1000))
}

// RateLimited reports whether err is the provider refusing to send another code.
func RateLimited(err error) bool {
	var limit *ctypes.LimitExceededException
	if errors.As(err, &limit) {
		return true
	}
	var tooMany *ctypes.TooManyRequestsException
	return errors.As(err, &tooMany)
}

var waitHint = regexp.MustCompile(`after (\d+) seconds`)

// RetryAfter returns how long to wait after a rate-limited send. Cognito does
// not return a structured retry interval; when the message carries an
// "after N seconds" hint it is used, otherwise fallback.
func RetryAfter(err error, fallback time.Duration) time.Duration {
	if fallback <= 0 {
		fallback = DefaultCooldown
	}
	if err == nil {
		return fallback
	}

	m := waitHint.FindStringSubmatch(err.Error())
	if m == nil {
		return fallback
	}

	seconds, convErr := strconv.Atoi(m[1])
	if convErr != nil || seconds <= 0 {
		return fallback
	}

	return time.Duration(seconds) * time.Second
}

// CooldownMessage is the user-facing text for an active cooldown.
func CooldownMessage(seconds int) string {
	return fmt.Sprintf("Please wait %d seconds before requesting another code.", seconds)
}
