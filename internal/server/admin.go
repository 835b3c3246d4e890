package server

import (
	"errors"
	"net/http"
	"strings"

	"donkeymap/internal/survey"
	"donkeymap/pkg/types"

	"github.com/sirupsen/logrus"
)

func (s *Service) handleAdminListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := s.surveys.Pending(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list pending surveys")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, surveys)
}

func (s *Service) handleAdminModerateSurvey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := identityFromContext(ctx).UserID

	var req types.ModerateSurveyRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	errs := survey.FieldErrors{}
	if strings.TrimSpace(req.ID) == "" {
		errs["id"] = "Survey id is required."
	}
	if req.Status != types.SurveyStatusApproved && req.Status != types.SurveyStatusRejected {
		errs["status"] = "Status must be approved or rejected."
	}
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	updated, err := s.surveys.SetStatus(ctx, req.ID, req.Status, req.IsPublic, adminID)
	if err != nil {
		if errors.Is(err, types.ErrSurveyNotFound) {
			s.writeError(w, http.StatusNotFound, "Survey not found.")
			return
		}
		s.logger.WithError(err).WithField("survey_id", req.ID).Error("failed to moderate survey")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.WithFields(logrus.Fields{
		"survey_id": updated.ID,
		"status":    updated.Status,
		"admin_id":  adminID,
	}).Info("survey moderated")

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Service) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.Users(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list users")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, users)
}

func (s *Service) handleAdminModerateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := identityFromContext(ctx).UserID

	var req types.ModerateUserRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	errs := survey.FieldErrors{}
	if strings.TrimSpace(req.ID) == "" {
		errs["id"] = "User id is required."
	}
	if req.Status != types.UserStatusApproved && req.Status != types.UserStatusRejected {
		errs["status"] = "Status must be approved or rejected."
	}
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	updated, err := s.users.SetStatus(ctx, req.ID, req.Status, adminID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			s.writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		s.logger.WithError(err).WithField("target_user_id", req.ID).Error("failed to moderate user")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Service) handleAdminModerateClaim(w http.ResponseWriter, r *http.Request) {
	var req types.ModerateClaimRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	errs := survey.FieldErrors{}
	if strings.TrimSpace(req.ID) == "" {
		errs["id"] = "Claim id is required."
	}
	if req.Status != types.ClaimStatusDelivered && req.Status != types.ClaimStatusCancelled {
		errs["status"] = "Status must be delivered or cancelled."
	}
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	claim, err := s.claims.SetStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrClaimNotFound):
			s.writeError(w, http.StatusNotFound, "Claim not found.")
		case errors.Is(err, types.ErrClaimNotPending):
			s.writeError(w, http.StatusConflict, "This claim has already been processed.")
		default:
			s.logger.WithError(err).WithField("claim_id", req.ID).Error("failed to moderate claim")
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.writeJSON(w, http.StatusOK, claim)
}
