package server

import (
	"net/http"
	"time"

	"donkeymap/internal/otp"
)

const (
	cookieSessionName = "dm_session"
	cookieOTPName     = "dm_otp"

	otpCookieMaxAge = time.Hour
)

func (s *Service) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Path:     "/",
	})
}

func (s *Service) setSessionCookie(w http.ResponseWriter, accessToken string, expiresIn int) error {
	encoded, err := s.cookie.Encode(cookieSessionName, accessToken)
	if err != nil {
		return err
	}

	s.setCookie(w, cookieSessionName, encoded, expiresIn)
	return nil
}

func (s *Service) readSessionCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(cookieSessionName)
	if err != nil {
		return "", false
	}

	var accessToken string
	if err := s.cookie.Decode(cookieSessionName, cookie.Value, &accessToken); err != nil {
		s.logger.WithError(err).Debug("failed to decode session cookie")
		return "", false
	}

	return accessToken, accessToken != ""
}

func (s *Service) clearSessionCookie(w http.ResponseWriter) {
	s.setCookie(w, cookieSessionName, "", -1)
}

// otpState returns the exchange stored for this browser, or a fresh one.
func (s *Service) otpState(r *http.Request) *otp.State {
	state := new(otp.State)

	cookie, err := r.Cookie(cookieOTPName)
	if err != nil {
		return state
	}

	if err := s.cookie.Decode(cookieOTPName, cookie.Value, state); err != nil {
		s.logger.WithError(err).Debug("failed to decode otp cookie")
		return new(otp.State)
	}

	return state
}

func (s *Service) saveOTPState(w http.ResponseWriter, state *otp.State) {
	encoded, err := s.cookie.Encode(cookieOTPName, state)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode otp cookie")
		return
	}

	s.setCookie(w, cookieOTPName, encoded, int(otpCookieMaxAge.Seconds()))
}

func (s *Service) clearOTPState(w http.ResponseWriter) {
	s.setCookie(w, cookieOTPName, "", -1)
}
