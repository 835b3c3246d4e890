package server

import (
	"context"
	"errors"
	"net/http"

	"donkeymap/internal/seed"
	"donkeymap/pkg/types"
)

// rewardCatalogue lists the rewards on offer, falling back to the bundled
// sample catalogue when the database cannot be read.
func (s *Service) rewardCatalogue(ctx context.Context) ([]*types.Reward, error) {
	rewards, err := s.rewards.Rewards(ctx)
	if err == nil {
		return rewards, nil
	}

	s.logger.WithError(err).Warn("failed to list rewards, serving sample catalogue")
	return seed.Catalogue()
}

func (s *Service) handleListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := s.rewardCatalogue(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load sample catalogue")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, rewards)
}

func (s *Service) handleRewardHistory(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	history, err := s.claims.History(r.Context(), identity.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to list claimed rewards")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, history)
}

func (s *Service) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := identityFromContext(ctx).UserID
	rewardID := r.PathValue("id")

	claim, err := s.claims.Claim(ctx, userID, rewardID)
	if err != nil {
		var short *types.InsufficientPointsError
		switch {
		case errors.As(err, &short):
			s.writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Not enough points", Needed: short.Needed})
		case errors.Is(err, types.ErrRewardNotFound):
			s.writeError(w, http.StatusNotFound, "Reward not found.")
		case errors.Is(err, types.ErrMissingUserRecord):
			s.writeError(w, http.StatusInternalServerError, msgContactAdmin)
		default:
			s.logger.WithError(err).WithField("reward_id", rewardID).Error("failed to claim reward")
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.logger.WithField("claim_id", claim.ID).WithField("user_id", userID).Info("reward claimed")

	s.writeJSON(w, http.StatusCreated, claim)
}
