package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"donkeymap/internal/auth"
	"donkeymap/internal/survey"
	"donkeymap/internal/utils"
	"donkeymap/pkg/types"

	"github.com/sirupsen/logrus"
)

func (s *Service) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := s.surveys.Visible(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list surveys")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, surveys)
}

func (s *Service) handleMySurveys(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	surveys, err := s.surveys.ByCreator(r.Context(), identity.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to list own surveys")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, surveys)
}

// refuseRejected answers 403 for users a moderator has rejected.
func (s *Service) refuseRejected(w http.ResponseWriter, r *http.Request, userID string) bool {
	rejected, err := s.rejectedUser(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to look up user status")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return true
	}
	if rejected {
		s.writeError(w, http.StatusForbidden, "Your account has been rejected.")
		return true
	}
	return false
}

func (s *Service) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)
	userID := sess.Identity.UserID

	var req types.CreateSurveyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLen)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	errs := survey.FieldErrors{}
	survey.ValidateTitle(req.Title, errs)
	questions := survey.ParseQuestions(req.Questions, errs)
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	s.ensureUser(ctx, sess)
	if s.refuseRejected(w, r, userID) {
		return
	}

	created := &types.Survey{
		Title:       strings.TrimSpace(req.Title),
		Description: utils.TrimmedStringPtr(utils.PtrString(req.Description)),
		Questions:   questions,
		CreatedBy:   userID,
		Status:      types.SurveyStatusPending,
		IsPublic:    req.IsPublic,
	}

	err := s.surveys.Create(ctx, created)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to create survey")
		if errors.Is(err, types.ErrMissingUserRecord) {
			s.writeError(w, http.StatusInternalServerError, msgContactAdmin)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, created)
}

// canView reports whether identity may see a survey that is not approved.
func (s *Service) canView(ctx context.Context, identity *auth.Identity, sv *types.Survey) (bool, error) {
	if sv.Status == types.SurveyStatusApproved {
		return true, nil
	}
	if identity == nil {
		return false, nil
	}
	if sv.CreatedBy == identity.UserID {
		return true, nil
	}

	user, err := s.users.User(ctx, identity.UserID)
	if errors.Is(err, types.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *Service) handleGetSurveyAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveyID := r.PathValue("id")

	sv, err := s.surveys.Survey(ctx, surveyID)
	if err != nil {
		s.writeSurveyLookupError(w, err, surveyID)
		return
	}

	ok, err := s.canView(ctx, identityFromContext(ctx), sv)
	if err != nil {
		s.logger.WithError(err).WithField("survey_id", surveyID).Error("failed to check survey visibility")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "Survey not found.")
		return
	}

	s.writeJSON(w, http.StatusOK, sv)
}

func (s *Service) writeSurveyLookupError(w http.ResponseWriter, err error, surveyID string) {
	if errors.Is(err, types.ErrSurveyNotFound) {
		s.writeError(w, http.StatusNotFound, "Survey not found.")
		return
	}
	s.logger.WithError(err).WithField("survey_id", surveyID).Error("failed to fetch survey")
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Service) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := identityFromContext(ctx).UserID
	surveyID := r.PathValue("id")

	if s.refuseRejected(w, r, userID) {
		return
	}

	sv, err := s.surveys.Survey(ctx, surveyID)
	if err != nil {
		s.writeSurveyLookupError(w, err, surveyID)
		return
	}
	if sv.Status != types.SurveyStatusApproved {
		s.writeError(w, http.StatusConflict, "This survey is not accepting responses.")
		return
	}

	var req types.SubmitResponseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLen)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	errs := survey.FieldErrors{}
	answers, answered := survey.ValidateAnswers(sv.Questions, req.Responses, errs)
	survey.ValidateLocation("location", req.Location, errs)
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	response := &types.SurveyResponse{
		SurveyID:    sv.ID,
		SubmittedBy: userID,
		Responses:   answers,
	}
	if req.Location != nil {
		response.Latitude = utils.Float64Ptr(req.Location.Latitude)
		response.Longitude = utils.Float64Ptr(req.Location.Longitude)
		response.Accuracy = req.Location.Accuracy
	}

	points := s.points.Award(answered)

	err = s.responses.Submit(ctx, response, points)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"survey_id": surveyID,
			"user_id":   userID,
		}).Error("failed to submit response")

		switch {
		case errors.Is(err, types.ErrSurveyNotFound):
			s.writeError(w, http.StatusNotFound, "Survey not found.")
		case errors.Is(err, types.ErrMissingUserRecord):
			s.writeError(w, http.StatusInternalServerError, msgContactAdmin)
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, types.SubmitResponseResult{Response: response, PointsEarned: points})
}

// ownSurvey loads the survey named in the path and checks the caller created it.
func (s *Service) ownSurvey(w http.ResponseWriter, r *http.Request) (*types.Survey, bool) {
	ctx := r.Context()
	surveyID := r.PathValue("id")

	sv, err := s.surveys.Survey(ctx, surveyID)
	if err != nil {
		s.writeSurveyLookupError(w, err, surveyID)
		return nil, false
	}

	if sv.CreatedBy != identityFromContext(ctx).UserID {
		s.writeError(w, http.StatusForbidden, "Only the creator can edit this survey.")
		return nil, false
	}

	return sv, true
}

func (s *Service) saveSurvey(w http.ResponseWriter, r *http.Request, sv *types.Survey) (*types.Survey, bool) {
	updated, err := s.surveys.Update(r.Context(), sv)
	if err != nil {
		if errors.Is(err, types.ErrSurveyNotFound) {
			s.writeError(w, http.StatusNotFound, "Survey not found.")
			return nil, false
		}
		s.logger.WithError(err).WithField("survey_id", sv.ID).Error("failed to update survey")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return updated, true
}

func (s *Service) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.ownSurvey(w, r)
	if !ok {
		return
	}

	var req types.UpdateSurveyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLen)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	errs := survey.FieldErrors{}
	if req.Title != nil {
		survey.ValidateTitle(*req.Title, errs)
		sv.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		sv.Description = utils.TrimmedStringPtr(*req.Description)
	}
	if len(req.Questions) > 0 {
		sv.Questions = survey.ParseQuestions(req.Questions, errs)
	}
	if req.IsPublic != nil {
		sv.IsPublic = *req.IsPublic
	}
	if len(errs) > 0 {
		s.writeFieldErrors(w, errs)
		return
	}

	updated, ok := s.saveSurvey(w, r, sv)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Service) handleMoveQuestion(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.ownSurvey(w, r)
	if !ok {
		return
	}

	var req types.MoveQuestionRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	moved, err := survey.MoveQuestion(sv.Questions, req.From, req.To)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}
	sv.Questions = moved

	updated, ok := s.saveSurvey(w, r, sv)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, updated.Questions)
}
