package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"donkeymap/internal/survey"
	"donkeymap/pkg/types"
)

const (
	msgFixFields      = "Please fix the highlighted fields."
	msgInvalidBody    = "Invalid request body."
	msgContactAdmin   = "Your account is not fully set up yet. Please contact your administrator."
	maxRequestBodyLen = 1 << 20
)

var errUnsupportedBody = errors.New("unsupported content type")

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	identity := identityFromContext(r.Context())
	isAdmin, _ := r.Context().Value(contextKeyIsAdmin).(bool)

	if setter, ok := data.(types.NavbarDataSetter); ok {
		navbar := types.NavbarData{IsAdmin: isAdmin}
		if identity != nil {
			navbar.IsAuthenticated = true
			navbar.UserID = identity.UserID
			navbar.UserEmail = identity.Email
		}
		setter.SetNavbarData(navbar)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.templates.ExecuteTemplate(w, templateName, data)
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response body")
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, types.ErrorResponse{Error: msg})
}

func (s *Service) writeFieldErrors(w http.ResponseWriter, errs survey.FieldErrors) {
	s.writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: msgFixFields, Fields: errs})
}

// decodeRequest reads a JSON body, or a urlencoded form into the struct's
// form tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyLen)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("decode json body: %w", err)
		}
		return nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("parse form: %w", err)
		}
		if err := decoder.Decode(dst, r.PostForm); err != nil {
			return fmt.Errorf("decode form: %w", err)
		}
		return nil
	default:
		return errUnsupportedBody
	}
}

// localRedirect returns target when it is a path on this site, else fallback.
func localRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}

	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}

	return target
}
