package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/verisite/visit-service/internal/services"
	"github.com/verisite/visit-service/internal/utils"
)

type VisitsController struct {
	visits services.VisitService
}

func NewVisitsController(visits services.VisitService) *VisitsController {
	return &VisitsController{visits: visits}
}

// -----------------------------------------------------------------------------
// GET /api/v1/visits
// -----------------------------------------------------------------------------
func (c *VisitsController) ListVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := c.visits.ListVisits(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to list visits", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, visits)
}

// -----------------------------------------------------------------------------
// GET /api/v1/visits/{id}
// -----------------------------------------------------------------------------
func (c *VisitsController) GetVisit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid visit id", nil, err,
		)
		return
	}

	visit, err := c.visits.GetVisit(r.Context(), id)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load visit", nil, err,
		)
		return
	}
	if visit == nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeVisitNotFound, "Visit not found", nil,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, visit)
}
