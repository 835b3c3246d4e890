package server

import (
	"errors"
	"net/http"
	"strings"

	"donkeymap/internal/otp"
	"donkeymap/internal/survey"
	"donkeymap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

func (s *Service) handlePostForgotPassword(w http.ResponseWriter, r *http.Request) {
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
	_, err := s.cognito.ForgotPassword(r.Context(), &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: aws.String(s.config.CognitoClientID),
		Username: aws.String(email),
	})
	if err != nil {
		// unknown accounts get the same answer as known ones
		var notFound *ctypes.UserNotFoundException
		if !errors.As(err, &notFound) {
			s.handleSendError(w, state, err, "forgot password")
			return
		}
		s.logger.WithField("action", "forgot password").Info("reset requested for unknown account")
	}

	s.codeSent(w, state, email, otp.FlowRecovery, "", types.AuthStepResetSent)
}

func (s *Service) handlePostResetPassword(w http.ResponseWriter, r *http.Request) {
	var req types.ResetPasswordForm
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	errs := requireCode(req.Email, req.Code)
	if len(req.Password) < minPasswordLength {
		errs["password"] = "Password must be at least 8 characters."
	}
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	state := s.otpState(r)
	if err := state.BeginVerify(req.Email, otp.FlowRecovery); err != nil {
		s.writeError(w, http.StatusBadRequest, "Request a reset code first.")
		return
	}
	s.saveOTPState(w, state)

	_, err := s.cognito.ConfirmForgotPassword(r.Context(), &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(s.config.CognitoClientID),
		Username:         aws.String(state.Email),
		ConfirmationCode: aws.String(strings.TrimSpace(req.Code)),
		Password:         aws.String(req.Password),
	})
	if err != nil {
		if s.writeCodeError(w, err) {
			return
		}

		var invalidPw *ctypes.InvalidPasswordException
		if errors.As(err, &invalidPw) {
			s.writeFieldErrors(w, survey.FieldErrors{"password": "Password does not meet the requirements."})
			return
		}

		s.logger.WithError(err).Error("failed to reset password")
		s.writeError(w, http.StatusInternalServerError, "Unable to reset the password right now. Please try again.")
		return
	}

	state.Complete()
	s.clearOTPState(w)

	s.writeJSON(w, http.StatusOK, types.AuthResult{Step: types.AuthStepPasswordReset, Redirect: "/login"})
}
