package handlers

import (
	"net/http"

	"github.com/courtside/pickleball-backend/middleware"
	"github.com/courtside/pickleball-backend/services"
)

type DuprHandler struct {
	duprService services.DuprService
}

func NewDuprHandler(duprService services.DuprService) *DuprHandler {
	return &DuprHandler{duprService: duprService}
}

// Submit godoc
// @Summary      Submit a finished tournament's matches to the rating provider
// @Description  Requires a completed playoff bracket. Pass force=true to
// @Description  resubmit a tournament that already has a successful batch.
// @Tags         dupr
// @Produce      json
// @Param        tournamentID path  int  true  "Tournament ID"
// @Param        force        query bool false "Resubmit despite a prior success"
// @Success      200 {object} services.SubmitResult
// @Router       /tournaments/{tournamentID}/dupr/submit [post]
func (h *DuprHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	submitterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	force := r.URL.Query().Get("force") == "true"

	result, err := h.duprService.Submit(r.Context(), tournamentID, submitterID, force)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DuprHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.duprService.Verify(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DuprHandler) ListSubmittedMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.duprService.ListSubmittedMatches(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateSubmittedMatch pushes corrected game scores for one already-submitted
// match to the provider and mirrors them locally.
func (h *DuprHandler) UpdateSubmittedMatch(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "submittedMatchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Games []services.GameInput `json:"games"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.duprService.UpdateSubmittedMatch(r.Context(), id, input.Games)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DuprHandler) DeleteSubmittedMatch(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "submittedMatchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.duprService.DeleteSubmittedMatch(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
