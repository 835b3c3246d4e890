package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donkeymap/internal/auth"
	"donkeymap/pkg/types"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const (
	contextKeySession contextKey = "session"
	contextKeyIsAdmin contextKey = "is_admin"
)

type session struct {
	Identity    *auth.Identity
	AccessToken string
}

func sessionFromContext(ctx context.Context) *session {
	sess, _ := ctx.Value(contextKeySession).(*session)
	return sess
}

func identityFromContext(ctx context.Context) *auth.Identity {
	if sess := sessionFromContext(ctx); sess != nil {
		return sess.Identity
	}
	return nil
}

func withSession(ctx context.Context, sess *session) context.Context {
	return context.WithValue(ctx, contextKeySession, sess)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoadSession verifies the session cookie, when present, and stores the
// caller in the request context. Requests without a valid session continue
// anonymously.
func (s *Service) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		accessToken, ok := s.readSessionCookie(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := s.verifier.Verify(r.Context(), accessToken)
		if err != nil {
			s.logger.WithError(err).Debug("discarding invalid session")
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		s.logger.WithField("user_id", identity.UserID).Debug("authenticated user")

		ctx := withSession(r.Context(), &session{Identity: identity, AccessToken: accessToken})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) RequireAuthConfig(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.AuthConfigured() || s.cognito == nil || s.verifier == nil {
			s.logger.WithField("path", r.URL.Path).Error("authentication settings are missing")
			s.writeError(w, http.StatusInternalServerError, "authentication is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) RequireServiceConfig(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.serviceUsers == nil {
			s.logger.WithField("path", r.URL.Path).Error("service database credential is missing")
			s.writeError(w, http.StatusInternalServerError, "service credentials are not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects API calls without a verified session.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFromContext(r.Context()) == nil {
			s.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects API calls from anyone whose user row is not an admin.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromContext(r.Context())
		if identity == nil {
			s.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := s.users.User(r.Context(), identity.UserID)
		if err != nil && !errors.Is(err, types.ErrUserNotFound) {
			s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to look up user role")
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !user.IsAdmin() {
			s.writeError(w, http.StatusForbidden, "Forbidden")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyIsAdmin, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminPath(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}

// protectedPath reports whether a page requires a signed-in user.
func protectedPath(path string) bool {
	if path == "/dashboard" || strings.HasPrefix(path, "/dashboard/") || adminPath(path) {
		return true
	}
	if path == "/surveys/create" {
		return true
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	return len(parts) == 3 && parts[0] == "surveys" && parts[1] != "" && parts[2] == "edit"
}

// GuardPages redirects anonymous visitors of protected pages to the login
// page and non-admins away from admin pages. Signed-in visitors get their
// user row provisioned on the way through.
func (s *Service) GuardPages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !protectedPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		sess := sessionFromContext(r.Context())
		if sess == nil {
			v := url.Values{}
			v.Set("redirectedFrom", path)
			http.Redirect(w, r, "/login?"+v.Encode(), http.StatusFound)
			return
		}

		s.ensureUser(r.Context(), sess)

		if !adminPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.users.User(r.Context(), sess.Identity.UserID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", sess.Identity.UserID).Warn("admin check failed")
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		if !user.IsAdmin() {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyIsAdmin, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
