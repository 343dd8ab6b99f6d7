package handlers

import (
	"net/http"

	"github.com/courtside/pickleball-backend/middleware"
	"github.com/courtside/pickleball-backend/services"
)

type ScoreHandler struct {
	scoreService services.ScoreService
}

func NewScoreHandler(scoreService services.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

// UpdateRoundRobinScore godoc
// @Summary      Record or correct a round-robin score
// @Description  The body carries the games plus the version the client last
// @Description  observed; a stale version yields 409 with the current row.
// @Tags         scores
// @Accept       json
// @Produce      json
// @Param        tournamentID path int true "Tournament ID"
// @Param        matchID      path int true "Match ID"
// @Param        input body services.ScoreUpdateInput true "Games and expected version"
// @Success      200 {object} models.RoundRobinScore
// @Router       /tournaments/{tournamentID}/matches/{matchID}/score [put]
func (h *ScoreHandler) UpdateRoundRobinScore(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	isAdmin := middleware.IsAdminFromContext(r.Context())

	var input services.ScoreUpdateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	score, err := h.scoreService.UpdateRoundRobinScore(r.Context(), tournamentID, matchID, callerID, isAdmin, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdatePlayoffScore addresses a bracket slot by round and match number. The
// second match of the final round is the bronze match.
func (h *ScoreHandler) UpdatePlayoffScore(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := urlParamInt(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := urlParamInt(r, "match")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	isAdmin := middleware.IsAdminFromContext(r.Context())

	var input services.ScoreUpdateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	score, err := h.scoreService.UpdatePlayoffScore(r.Context(), tournamentID, round, match, callerID, isAdmin, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
