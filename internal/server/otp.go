package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"donkeymap/internal/otp"
	"donkeymap/internal/survey"
	"donkeymap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// Cognito choice-based sign in. Declared here since the SDK enums are open strings.
const (
	authFlowUserAuth      = ctypes.AuthFlowType("USER_AUTH")
	challengeEmailOTP     = ctypes.ChallengeNameType("EMAIL_OTP")
	preferredChallengeKey = "PREFERRED_CHALLENGE"
	emailOTPCodeKey       = "EMAIL_OTP_CODE"
)

func (s *Service) cooldown() time.Duration {
	if s.config.OTPCooldownSec <= 0 {
		return otp.DefaultCooldown
	}
	return time.Duration(s.config.OTPCooldownSec) * time.Second
}

// refuseDuringCooldown answers 429 when this browser is still waiting to
// request another code.
func (s *Service) refuseDuringCooldown(w http.ResponseWriter, state *otp.State) bool {
	now := s.now()
	if !state.CooldownActive(now) {
		return false
	}

	s.writeCooldown(w, state.Remaining(now))
	return true
}

func (s *Service) writeCooldown(w http.ResponseWriter, seconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	s.writeJSON(w, http.StatusTooManyRequests, types.ErrorResponse{
		Error:      otp.CooldownMessage(seconds),
		RetryAfter: seconds,
	})
}

// handleSendError deals with a failed code delivery. A provider rate limit
// starts the local cooldown for the interval the provider asked for.
func (s *Service) handleSendError(w http.ResponseWriter, state *otp.State, err error, action string) {
	if otp.RateLimited(err) {
		now := s.now()
		state.StartCooldown(now, otp.RetryAfter(err, s.cooldown()))
		s.saveOTPState(w, state)
		s.writeCooldown(w, state.Remaining(now))
		return
	}

	s.logger.WithError(err).WithField("action", action).Error("failed to send verification code")
	s.writeError(w, http.StatusInternalServerError, "Unable to send a verification code right now. Please try again.")
}

// codeSent records a delivered code and answers with the cooldown the
// client should display.
func (s *Service) codeSent(w http.ResponseWriter, state *otp.State, email string, flow otp.Flow, sessionToken string, step string) {
	now := s.now()
	state.Sent(email, flow, sessionToken)
	state.StartCooldown(now, s.cooldown())
	s.saveOTPState(w, state)

	s.writeJSON(w, http.StatusOK, types.AuthResult{
		Step:       step,
		Email:      state.Email,
		RetryAfter: state.Remaining(now),
	})
}

func requireEmail(email string) survey.FieldErrors {
	errs := survey.FieldErrors{}
	if strings.TrimSpace(email) == "" {
		errs["email"] = "Email is required."
	}
	return errs
}

func requireCode(email, code string) survey.FieldErrors {
	errs := requireEmail(email)
	if strings.TrimSpace(code) == "" {
		errs["code"] = "Enter the code from your email."
	}
	return errs
}

// writeCodeError maps a rejected verification code to a field error.
// It reports false for errors that are not about the code.
func (s *Service) writeCodeError(w http.ResponseWriter, err error) bool {
	var mismatch *ctypes.CodeMismatchException
	if errors.As(err, &mismatch) {
		s.writeFieldErrors(w, survey.FieldErrors{"code": "Invalid verification code. Please check the code and try again."})
		return true
	}

	var expired *ctypes.ExpiredCodeException
	if errors.As(err, &expired) {
		s.writeFieldErrors(w, survey.FieldErrors{"code": "This code has expired. Request a new one."})
		return true
	}

	return false
}

// handlePostOTP starts a passwordless sign in by emailing a one-time code.
func (s *Service) handlePostOTP(w http.ResponseWriter, r *http.Request) {
	var req types.EmailForm
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if errs := requireEmail(req.Email); len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	state := s.otpState(r)
	if s.refuseDuringCooldown(w, state) {
		return
	}

	email := strings.TrimSpace(req.Email)
	resp, err := s.cognito.InitiateAuth(r.Context(), &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: authFlowUserAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME":            email,
			preferredChallengeKey: string(challengeEmailOTP),
		},
	})
	if err != nil {
		var notFound *ctypes.UserNotFoundException
		if errors.As(err, &notFound) {
			s.writeFieldErrors(w, survey.FieldErrors{"email": "No account uses this email. Sign up first."})
			return
		}
		s.handleSendError(w, state, err, "otp sign in")
		return
	}

	if resp.AuthenticationResult != nil {
		if s.startSession(w, r, resp.AuthenticationResult) {
			s.clearOTPState(w)
			s.writeJSON(w, http.StatusOK, types.AuthResult{Step: types.AuthStepAuthenticated, Redirect: defaultLandingPage})
		}
		return
	}

	if resp.ChallengeName != challengeEmailOTP {
		s.logger.WithField("challenge", resp.ChallengeName).Error("unexpected sign in challenge")
		s.writeError(w, http.StatusInternalServerError, "Email codes are not available for this account.")
		return
	}

	s.codeSent(w, state, email, otp.FlowSignin, aws.ToString(resp.Session), types.AuthStepOTPSent)
}

func (s *Service) handlePostOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req types.CodeForm
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if errs := requireCode(req.Email, req.Code); len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	state := s.otpState(r)
	if err := state.BeginVerify(req.Email, otp.FlowSignin); err != nil {
		s.writeError(w, http.StatusBadRequest, "Request a sign in code first.")
		return
	}
	s.saveOTPState(w, state)

	resp, err := s.cognito.RespondToAuthChallenge(r.Context(), &cognitoidentityprovider.RespondToAuthChallengeInput{
		ChallengeName: challengeEmailOTP,
		ClientId:      aws.String(s.config.CognitoClientID),
		Session:       aws.String(state.Session),
		ChallengeResponses: map[string]string{
			"USERNAME":      state.Email,
			emailOTPCodeKey: strings.TrimSpace(req.Code),
		},
	})
	if err != nil {
		if s.writeCodeError(w, err) {
			return
		}

		var notAuthorized *ctypes.NotAuthorizedException
		if errors.As(err, &notAuthorized) {
			s.writeError(w, http.StatusUnauthorized, "This sign in attempt has expired. Request a new code.")
			return
		}

		s.logger.WithError(err).Error("failed to verify sign in code")
		s.writeError(w, http.StatusInternalServerError, "Unable to verify the code right now. Please try again.")
		return
	}

	if resp.AuthenticationResult == nil {
		if resp.Session != nil {
			// wrong code with attempts left: Cognito issues a fresh session
			state.Session = aws.ToString(resp.Session)
			s.saveOTPState(w, state)
		}
		s.writeFieldErrors(w, survey.FieldErrors{"code": "Invalid verification code. Please check the code and try again."})
		return
	}

	if !s.startSession(w, r, resp.AuthenticationResult) {
		return
	}

	state.Complete()
	s.clearOTPState(w)

	s.writeJSON(w, http.StatusOK, types.AuthResult{Step: types.AuthStepAuthenticated, Redirect: defaultLandingPage})
}
