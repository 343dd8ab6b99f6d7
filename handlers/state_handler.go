package handlers

import (
	"context"
	"net/http"

	"github.com/courtside/pickleball-backend/services"
)

// StateHandler exposes the tournament lifecycle plus the derived read views.
// The lifecycle routes are admin-only; the views are public.
type StateHandler struct {
	stateService services.StateService
}

func NewStateHandler(stateService services.StateService) *StateHandler {
	return &StateHandler{stateService: stateService}
}

// GetView godoc
// @Summary      Full live view of a tournament
// @Description  Phase, round-robin schedule with scores, standings and the
// @Description  resolved playoff bracket, as far as the tournament has come.
// @Tags         state
// @Produce      json
// @Param        tournamentID path int true "Tournament ID"
// @Success      200 {object} services.TournamentView
// @Router       /tournaments/{tournamentID}/state [get]
func (h *StateHandler) GetView(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.stateService.GetView(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StateHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.stateService.GetStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StateHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, scores, err := h.stateService.GetSchedule(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches, "scores": scores}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StateHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.stateService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StateHandler) StartRoundRobin(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.stateService.StartRoundRobin)
}

func (h *StateHandler) StartPlayoff(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.stateService.StartPlayoff)
}

func (h *StateHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.stateService.Archive)
}

func (h *StateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.stateService.Reset)
}

func (h *StateHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, tournamentID int) error) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := op(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	phase, err := h.stateService.GetPhase(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"phase": phase}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
