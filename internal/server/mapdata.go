package server

import (
	"context"
	"net/http"

	"donkeymap/internal/survey"
	"donkeymap/pkg/types"
)

// mapPoints converts located responses to map markers carrying only the
// answers to public questions.
func (s *Service) mapPoints(ctx context.Context) ([]*types.MapPoint, error) {
	located, err := s.responses.Located(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]*types.MapPoint, 0, len(located))
	for _, l := range located {
		if l.Latitude == nil || l.Longitude == nil {
			continue
		}

		points = append(points, &types.MapPoint{
			ResponseID:  l.ID,
			SurveyID:    l.SurveyID,
			SurveyTitle: l.SurveyTitle,
			Latitude:    *l.Latitude,
			Longitude:   *l.Longitude,
			SubmittedAt: l.SubmittedAt,
			Answers:     survey.PublicAnswers(l.SurveyQuestions, l.Responses),
		})
	}

	return points, nil
}

func (s *Service) handleMapPoints(w http.ResponseWriter, r *http.Request) {
	points, err := s.mapPoints(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load map points")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, points)
}
