package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"donkeymap/internal/otp"
	"donkeymap/internal/survey"
	"donkeymap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

const minPasswordLength = 8

func validateSignupInput(email, password string) survey.FieldErrors {
	errs := survey.FieldErrors{}

	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	if len(password) < minPasswordLength {
		errs["password"] = "Password must be at least 8 characters."
	}

	return errs
}

func (s *Service) handlePostSignup(w http.ResponseWriter, r *http.Request) {
	var req types.SignupForm
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if errs := validateSignupInput(req.Email, req.Password); len(errs) > 0 {
		s.logger.WithField("field_errors", errs).Info("validation errors during signup")
		s.writeFieldErrors(w, errs)
		return
	}

	state := s.otpState(r)
	if s.refuseDuringCooldown(w, state) {
		return
	}

	email := strings.TrimSpace(req.Email)
	attributes := []ctypes.AttributeType{
		{Name: aws.String("email"), Value: aws.String(email)},
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		attributes = append(attributes, ctypes.AttributeType{Name: aws.String("name"), Value: aws.String(name)})
	}

	_, err := s.cognito.SignUp(r.Context(), &cognitoidentityprovider.SignUpInput{
		ClientId:       aws.String(s.config.CognitoClientID),
		Username:       aws.String(email), // use email as username
		Password:       aws.String(req.Password),
		UserAttributes: attributes,
	})
	if err != nil {
		if msg, fields, ok := mapCognitoSignUpError(err); ok {
			s.writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: msg, Fields: fields})
			return
		}
		s.handleSendError(w, state, err, "signup")
		return
	}

	s.codeSent(w, state, email, otp.FlowSignup, "", types.AuthStepOTPSent)
}

func mapCognitoSignUpError(err error) (string, map[string]string, bool) {
	var invalidPw *ctypes.InvalidPasswordException
	if errors.As(err, &invalidPw) {
		return msgFixFields, map[string]string{"password": "Password does not meet the requirements."}, true
	}

	var userExists *ctypes.UsernameExistsException
	if errors.As(err, &userExists) {
		return "Try signing in instead.", map[string]string{"email": "An account with this email already exists."}, true
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return "Some details are invalid. Please review and try again.", nil, true
	}

	return "", nil, false
}

func (s *Service) handlePostSignupConfirm(w http.ResponseWriter, r *http.Request) {
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
	if err := state.BeginVerify(req.Email, otp.FlowSignup); err != nil {
		s.writeError(w, http.StatusBadRequest, "Request a verification code first.")
		return
	}
	s.saveOTPState(w, state)

	_, err := s.cognito.ConfirmSignUp(r.Context(), &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(s.config.CognitoClientID),
		Username:         aws.String(state.Email),
		ConfirmationCode: aws.String(strings.TrimSpace(req.Code)),
	})
	if err != nil {
		if s.writeCodeError(w, err) {
			return
		}
		s.logger.WithError(err).Error("failed to confirm user signup")
		s.writeError(w, http.StatusInternalServerError, "Unable to confirm account. Please try again.")
		return
	}

	state.Complete()
	s.clearOTPState(w)

	s.writeJSON(w, http.StatusOK, types.AuthResult{
		Step:     types.AuthStepConfirmed,
		Redirect: "/login?confirmed=true",
	})
}

func (s *Service) handlePostSignupResend(w http.ResponseWriter, r *http.Request) {
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
	_, err := s.cognito.ResendConfirmationCode(r.Context(), &cognitoidentityprovider.ResendConfirmationCodeInput{
		ClientId: aws.String(s.config.CognitoClientID),
		Username: aws.String(email),
	})
	if err != nil {
		s.handleSendError(w, state, err, "resend signup code")
		return
	}

	s.codeSent(w, state, email, otp.FlowSignup, "", types.AuthStepOTPSent)
}
