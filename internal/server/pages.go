package server

import (
	"errors"
	"net/http"

	"donkeymap/internal/survey"
	"donkeymap/pkg/types"
)

func (s *Service) render(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	if err := s.renderTemplate(w, r, templateName, data); err != nil {
		s.logger.WithError(err).WithField("template", templateName).Error("failed to render page")
		s.internalServerError(w)
	}
}

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	data := &types.HomePageData{
		BasePageData: types.BasePageData{
			Title:  "Donkey Mapping Initiative",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
	}

	surveys, err := s.surveys.Visible(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list surveys for home page")
		data.Error = "Surveys could not be loaded."
	}
	data.Surveys = surveys

	s.render(w, r, "page.home", data)
}

func (s *Service) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	data := &types.DashboardPageData{
		BasePageData: types.BasePageData{Title: "Dashboard", Notice: r.URL.Query().Get("notice")},
		Stats:        s.userStats(ctx, identity),
	}

	surveys, err := s.surveys.ByCreator(ctx, identity.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to list own surveys")
		data.Error = "Your surveys could not be loaded."
	}
	data.Surveys = surveys

	s.render(w, r, "page.dashboard", data)
}

func (s *Service) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := &types.AdminPageData{BasePageData: types.BasePageData{Title: "Moderation"}}

	pending, err := s.surveys.Pending(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to list pending surveys")
		data.Error = "Pending surveys could not be loaded."
	}
	data.PendingSurveys = pending

	users, err := s.users.Users(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to list users")
		data.Error = "Users could not be loaded."
	}
	data.Users = users

	s.render(w, r, "page.admin", data)
}

func (s *Service) handleGetSurveyCreate(w http.ResponseWriter, r *http.Request) {
	data := &types.SurveyFormPageData{
		BasePageData:  types.BasePageData{Title: "Create survey"},
		Survey:        &types.Survey{},
		QuestionTypes: survey.QuestionTypes(),
	}

	s.render(w, r, "page.survey-form", data)
}

func (s *Service) handleGetSurveyEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sv, err := s.surveys.Survey(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, types.ErrSurveyNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).Error("failed to fetch survey for editing")
		s.internalServerError(w)
		return
	}

	if sv.CreatedBy != identityFromContext(ctx).UserID {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := &types.SurveyFormPageData{
		BasePageData:  types.BasePageData{Title: "Edit survey"},
		Survey:        sv,
		QuestionTypes: survey.QuestionTypes(),
	}

	s.render(w, r, "page.survey-form", data)
}

// handleGetSurvey renders the response form of a survey.
func (s *Service) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sv, err := s.surveys.Survey(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, types.ErrSurveyNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).Error("failed to fetch survey")
		s.internalServerError(w)
		return
	}

	ok, err := s.canView(ctx, identityFromContext(ctx), sv)
	if err != nil {
		s.logger.WithError(err).Error("failed to check survey visibility")
		s.internalServerError(w)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := &types.SurveyFormPageData{
		BasePageData: types.BasePageData{Title: sv.Title},
		Survey:       sv,
	}

	s.render(w, r, "page.survey", data)
}

func (s *Service) handleGetMap(w http.ResponseWriter, r *http.Request) {
	data := &types.MapPageData{BasePageData: types.BasePageData{Title: "Map"}}

	points, err := s.mapPoints(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load map points")
		data.Error = "Map data could not be loaded."
	}
	data.Points = points

	s.render(w, r, "page.map", data)
}

func (s *Service) handleGetRewards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	data := &types.RewardsPageData{
		BasePageData: types.BasePageData{Title: "Rewards"},
		Stats:        s.userStats(ctx, identity),
	}

	rewards, err := s.rewardCatalogue(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to load rewards")
		data.Error = "Rewards could not be loaded."
	}
	data.Rewards = rewards

	if identity != nil {
		history, err := s.claims.History(ctx, identity.UserID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", identity.UserID).Warn("failed to load claim history")
		}
		data.History = history
	}

	s.render(w, r, "page.rewards", data)
}
