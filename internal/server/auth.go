package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"donkeymap/internal/otp"
	"donkeymap/internal/survey"
	"donkeymap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

const defaultLandingPage = "/dashboard"

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	if identityFromContext(r.Context()) != nil {
		http.Redirect(w, r, defaultLandingPage, http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	data := &types.LoginPageData{
		BasePageData:   types.BasePageData{Title: "Sign in", Error: q.Get("error")},
		RedirectedFrom: localRedirect(q.Get("redirectedFrom"), ""),
		Confirmed:      q.Get("confirmed") == "true",
	}
	if data.Confirmed {
		data.Notice = "Your email is confirmed. You can sign in now."
	}

	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req types.LoginForm
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	email := strings.TrimSpace(req.Email)
	errs := survey.FieldErrors{}
	if email == "" {
		errs["email"] = "Email is required."
	}
	if req.Password == "" {
		errs["password"] = "Password is required."
	}
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": req.Password,
		},
	}

	resp, err := s.cognito.InitiateAuth(ctx, input)
	if err != nil {
		s.writeSignInError(w, err)
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		s.logger.WithField("challenge", resp.ChallengeName).Warn("password sign in returned a challenge")
		s.writeError(w, http.StatusUnauthorized, "Sign in could not be completed.")
		return
	}

	if !s.startSession(w, r, resp.AuthenticationResult) {
		return
	}

	s.writeJSON(w, http.StatusOK, types.AuthResult{
		Step:     types.AuthStepAuthenticated,
		Redirect: localRedirect(req.RedirectedFrom, defaultLandingPage),
	})
}

func (s *Service) writeSignInError(w http.ResponseWriter, err error) {
	var notAuthorized *ctypes.NotAuthorizedException
	var notFound *ctypes.UserNotFoundException
	var notConfirmed *ctypes.UserNotConfirmedException

	switch {
	case errors.As(err, &notAuthorized), errors.As(err, &notFound):
		s.writeError(w, http.StatusUnauthorized, "Invalid email or password.")
	case errors.As(err, &notConfirmed):
		s.writeError(w, http.StatusForbidden, "Please confirm your email before signing in.")
	case otp.RateLimited(err):
		s.writeJSON(w, http.StatusTooManyRequests, types.ErrorResponse{Error: "Too many attempts. Please try again later."})
	default:
		s.logger.WithError(err).Error("failed to sign in user")
		s.writeError(w, http.StatusInternalServerError, "Unable to sign in right now. Please try again.")
	}
}

// startSession stores the access token of a completed sign in and
// provisions the user row. It writes the error response itself and reports
// whether the caller should continue.
func (s *Service) startSession(w http.ResponseWriter, r *http.Request, result *ctypes.AuthenticationResultType) bool {
	accessToken := aws.ToString(result.AccessToken)

	identity, err := s.verifier.Verify(r.Context(), accessToken)
	if err != nil {
		s.logger.WithError(err).Error("issued access token failed verification")
		s.writeError(w, http.StatusInternalServerError, "Unable to sign in right now. Please try again.")
		return false
	}

	if err := s.setSessionCookie(w, accessToken, int(result.ExpiresIn)); err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.writeError(w, http.StatusInternalServerError, "Unable to sign in right now. Please try again.")
		return false
	}

	sess := &session{Identity: identity, AccessToken: accessToken}
	s.ensureUser(r.Context(), sess)
	s.touchLastLogin(r.Context(), identity.UserID)

	return true
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	s.clearOTPState(w)

	s.writeJSON(w, http.StatusOK, types.AuthResult{Step: types.AuthStepSignedOut, Redirect: "/"})
}

// handleAuthCallback finishes hosted-UI sign in and email link flows. Errors
// reported by the identity provider are forwarded to the reset page.
func (s *Service) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if q.Get("error") != "" {
		v := url.Values{}
		v.Set("error", q.Get("error"))
		v.Set("error_code", q.Get("error_code"))
		v.Set("error_description", q.Get("error_description"))
		http.Redirect(w, r, "/reset-password?"+v.Encode(), http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if s.oauth == nil || s.verifier == nil {
		s.logger.Error("auth callback reached without a hosted UI domain configured")
		s.writeError(w, http.StatusInternalServerError, "authentication is not configured")
		return
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.WithError(err).Error("failed to exchange auth code")
		v := url.Values{}
		v.Set("error", "Sign in link is invalid or has expired.")
		http.Redirect(w, r, "/login?"+v.Encode(), http.StatusSeeOther)
		return
	}

	identity, err := s.verifier.Verify(ctx, token.AccessToken)
	if err != nil {
		s.logger.WithError(err).Error("exchanged access token failed verification")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	expiresIn := 0
	if !token.Expiry.IsZero() {
		expiresIn = int(token.Expiry.Sub(s.now()).Seconds())
	}

	if err := s.setSessionCookie(w, token.AccessToken, expiresIn); err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.internalServerError(w)
		return
	}

	s.ensureUser(ctx, &session{Identity: identity, AccessToken: token.AccessToken})
	s.touchLastLogin(ctx, identity.UserID)

	http.Redirect(w, r, localRedirect(q.Get("redirectTo"), defaultLandingPage), http.StatusSeeOther)
}

func (s *Service) handleGetResetPassword(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := &types.ResetPasswordPageData{
		BasePageData:     types.BasePageData{Title: "Reset password", Error: q.Get("error")},
		ErrorCode:        q.Get("error_code"),
		ErrorDescription: q.Get("error_description"),
	}

	if err := s.renderTemplate(w, r, "page.reset-password", data); err != nil {
		s.logger.WithError(err).Error("failed to render reset password page")
		s.internalServerError(w)
	}
}
