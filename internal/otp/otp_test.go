package otp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

func TestCooldownBlocksForExactlyN(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 250_000_000, time.UTC)

	var s State
	s.StartCooldown(start, 45*time.Second)

	testCases := []struct {
		name   string
		at     time.Time
		active bool
		remain int
	}{
		{"at start", start, true, 45},
		{"half a second in", start.Add(500 * time.Millisecond), true, 45},
		{"one second in", start.Add(time.Second), true, 44},
		{"just before expiry", start.Add(45*time.Second - time.Millisecond), true, 1},
		{"at expiry", start.Add(45 * time.Second), false, 0},
		{"after expiry", start.Add(time.Minute), false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.CooldownActive(tc.at); got != tc.active {
				t.Errorf("CooldownActive() = %v, want %v", got, tc.active)
			}
			if got := s.Remaining(tc.at); got != tc.remain {
				t.Errorf("Remaining() = %d, want %d", got, tc.remain)
			}
		})
	}
}

func TestCooldownSurvivesRoundTrip(t *testing.T) {
	now := time.Now()
	var s State
	s.StartCooldown(now, DefaultCooldown)

	// a reload only has the stored expiry to go by
	reloaded := State{CooldownUntil: s.CooldownUntil}
	if !reloaded.CooldownActive(now.Add(30 * time.Second)) {
		t.Error("expected cooldown to still be active after reload")
	}
}

func TestCompleteClearsCooldown(t *testing.T) {
	now := time.Now()
	var s State
	s.Sent("Burro@Example.org ", FlowSignin, "challenge-session")
	s.StartCooldown(now, DefaultCooldown)

	if err := s.BeginVerify("burro@example.org", FlowSignin); err != nil {
		t.Fatalf("BeginVerify() error = %v", err)
	}
	if s.Stage != StageVerifying {
		t.Errorf("expected stage verifying, got %s", s.Stage)
	}

	s.Complete()
	if s.CooldownActive(now) {
		t.Error("expected cooldown to be cleared")
	}
	if s.Stage != StageAuthenticated || s.Session != "" {
		t.Errorf("unexpected state after complete: %+v", s)
	}
}

func TestBeginVerifyRequiresSentCode(t *testing.T) {
	var s State
	if err := s.BeginVerify("a@example.org", FlowSignup); !errors.Is(err, ErrNoCodeSent) {
		t.Errorf("expected ErrNoCodeSent, got %v", err)
	}

	s.Sent("a@example.org", FlowSignup, "")
	if err := s.BeginVerify("b@example.org", FlowSignup); !errors.Is(err, ErrNoCodeSent) {
		t.Errorf("expected ErrNoCodeSent for other email, got %v", err)
	}
	if err := s.BeginVerify("a@example.org", FlowSignin); !errors.Is(err, ErrNoCodeSent) {
		t.Errorf("expected ErrNoCodeSent for other flow, got %v", err)
	}
	if err := s.BeginVerify("a@example.org", FlowSignup); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	// a wrong code keeps the state in verifying and may be retried
	if err := s.BeginVerify("a@example.org", FlowSignup); err != nil {
		t.Errorf("expected retry to be allowed, got %v", err)
	}
}

func TestRateLimited(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"limit exceeded", &ctypes.LimitExceededException{Message: aws.String("Attempt limit exceeded")}, true},
		{"wrapped too many requests", fmt.Errorf("send code: %w", &ctypes.TooManyRequestsException{}), true},
		{"code mismatch", &ctypes.CodeMismatchException{}, false},
		{"rate limit text only", errors.New("email rate limit exceeded"), false},
		{"nil", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RateLimited(tc.err); got != tc.want {
				t.Errorf("RateLimited() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	hinted := &ctypes.LimitExceededException{Message: aws.String("For security purposes, you can only request this after 17 seconds.")}
	if got := RetryAfter(hinted, DefaultCooldown); got != 17*time.Second {
		t.Errorf("expected hinted 17s, got %v", got)
	}

	plain := &ctypes.LimitExceededException{Message: aws.String("Attempt limit exceeded, please try after some time.")}
	if got := RetryAfter(plain, 90*time.Second); got != 90*time.Second {
		t.Errorf("expected fallback 90s, got %v", got)
	}

	if got := RetryAfter(plain, 0); got != DefaultCooldown {
		t.Errorf("expected default cooldown, got %v", got)
	}
}
