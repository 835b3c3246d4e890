package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"donkeymap/internal/auth"
	"donkeymap/internal/survey"
	"donkeymap/internal/utils"
	"donkeymap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/sirupsen/logrus"
)

const defaultUserName = "User"

// newUserRow builds the row provisioned for a first-time user. Email and
// name come from the token, then the provider's user attributes.
func (s *Service) newUserRow(ctx context.Context, sess *session) *types.User {
	identity := sess.Identity
	email := identity.Email
	name := identity.Name

	if (email == "" || name == "") && s.cognito != nil && sess.AccessToken != "" {
		email, name = s.fillFromProvider(ctx, sess.AccessToken, email, name)
	}

	if name == "" {
		name = defaultUserName
	}

	return &types.User{
		ID:     identity.UserID,
		Email:  utils.TrimmedStringPtr(email),
		Name:   name,
		Role:   types.UserRoleDataCollector,
		Status: types.UserStatusApproved,
	}
}

func (s *Service) fillFromProvider(ctx context.Context, accessToken, email, name string) (string, string) {
	out, err := s.cognito.GetUser(ctx, &cognitoidentityprovider.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		s.logger.WithError(err).Warn("failed to read user attributes")
		return email, name
	}

	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "email":
			if email == "" {
				email = aws.ToString(attr.Value)
			}
		case "name":
			if name == "" {
				name = aws.ToString(attr.Value)
			}
		}
	}

	return email, name
}

// provision creates the caller's user row unless it exists.
func (s *Service) provision(ctx context.Context, sess *session) (bool, error) {
	if s.serviceUsers == nil {
		return false, errors.New("service credentials are not configured")
	}
	return s.serviceUsers.Ensure(ctx, s.newUserRow(ctx, sess))
}

// ensureUser provisions the caller on a best-effort basis. Failures are
// logged and never block the request.
func (s *Service) ensureUser(ctx context.Context, sess *session) {
	if sess == nil || sess.Identity == nil || s.serviceUsers == nil {
		return
	}

	created, err := s.provision(ctx, sess)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", sess.Identity.UserID).Warn("failed to provision user")
		return
	}
	if created {
		s.logger.WithField("user_id", sess.Identity.UserID).Info("provisioned user")
	}
}

func (s *Service) touchLastLogin(ctx context.Context, userID string) {
	repo := s.serviceUsers
	if repo == nil {
		repo = s.users
	}
	if err := repo.TouchLastLogin(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to record last login")
	}
}

func (s *Service) handleEnsureUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	created, err := s.provision(r.Context(), sess)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", sess.Identity.UserID).Error("failed to ensure user")
		s.writeJSON(w, http.StatusInternalServerError, types.ProvisionResult{Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, types.ProvisionResult{Success: true, Created: created, Exists: !created})
}

// handleDirectCreateUser provisions a row for an explicit id. Non-admins may
// only create their own row, and only as a data collector.
func (s *Service) handleDirectCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	var req types.DirectCreateUserRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.Email = strings.TrimSpace(req.Email)
	if req.UserID == identity.UserID && identity.Email != "" {
		req.Email = identity.Email
	}
	if req.Role == "" {
		req.Role = types.UserRoleDataCollector
	}

	errs := survey.FieldErrors{}
	if req.UserID == "" {
		errs["userId"] = "User id is required."
	}
	if req.Email == "" {
		errs["email"] = "Email is required."
	}
	if !req.Role.Valid() {
		errs["role"] = "Unknown role."
	}
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	if req.UserID != identity.UserID || req.Role != types.UserRoleDataCollector {
		caller, err := s.users.User(ctx, identity.UserID)
		if err != nil && !errors.Is(err, types.ErrUserNotFound) {
			s.logger.WithError(err).Error("failed to look up caller role")
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !caller.IsAdmin() {
			s.writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultUserName
	}

	created, err := s.serviceUsers.Ensure(ctx, &types.User{
		ID:     req.UserID,
		Email:  utils.StringPtr(req.Email),
		Name:   name,
		Role:   req.Role,
		Status: types.UserStatusApproved,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":   req.UserID,
			"caller_id": identity.UserID,
		}).Error("failed to create user")
		s.writeJSON(w, http.StatusInternalServerError, types.ProvisionResult{Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, types.ProvisionResult{Success: true, Created: created, Exists: !created})
}

// userStats never fails: missing credentials or a failed query yield zeros.
func (s *Service) userStats(ctx context.Context, identity *auth.Identity) types.UserStats {
	if identity == nil || s.serviceUsers == nil {
		return types.UserStats{}
	}

	stats, err := s.serviceUsers.Stats(ctx, identity.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Warn("failed to load user stats")
		return types.UserStats{}
	}

	return *stats
}

func (s *Service) handleUserStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.userStats(r.Context(), identityFromContext(r.Context())))
}

// rejectedUser reports whether the caller's account has been rejected by a
// moderator. Unknown users are not rejected.
func (s *Service) rejectedUser(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.User(ctx, userID)
	if errors.Is(err, types.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Status == types.UserStatusRejected, nil
}
