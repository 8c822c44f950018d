package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/verisite/visit-service/internal/dtos"
	"github.com/verisite/visit-service/internal/services"
	"github.com/verisite/visit-service/internal/utils"
)

// AttestationController exposes the attestation protocol surface:
// challenge issuance and event submission.
type AttestationController struct {
	attestation services.AttestationService
	visits      services.VisitService
}

func NewAttestationController(attestation services.AttestationService, visits services.VisitService) *AttestationController {
	return &AttestationController{attestation: attestation, visits: visits}
}

var validate = validator.New()

// -----------------------------------------------------------------------------
// POST /api/v1/attestation/challenge
// -----------------------------------------------------------------------------
func (c *AttestationController) IssueChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := c.attestation.IssueChallenge(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to issue challenge", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ChallengeResponse{
		ChallengeID: challenge.ID,
		Nonce:       challenge.Nonce,
		ExpiresAt:   challenge.ExpiresAt,
	})
}

// -----------------------------------------------------------------------------
// POST /api/v1/attestation/events
// -----------------------------------------------------------------------------
func (c *AttestationController) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var req dtos.SubmitEventRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Malformed attestation event", nil, err,
		)
		return
	}

	resp, err := c.visits.SubmitEvent(r.Context(), req)
	if err != nil {
		respondSubmitError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// respondSubmitError maps pipeline sentinels onto stable error codes.
// Every reason says which check failed and nothing more; anything not
// recognized here is an infrastructure failure the caller may retry.
func respondSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidPayload):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err)
	case errors.Is(err, utils.ErrLocationInaccurate):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodeLocationInaccurate,
			"Location not precise enough to serve as proof", nil, err)
	case errors.Is(err, utils.ErrPhotoNotFound):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodePhotoNotFound,
			"Photo not found; upload it first", nil, err)
	case errors.Is(err, utils.ErrPhotoDigestMismatch):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodePhotoDigestMismatch,
			"Photo digest does not match the uploaded photo", nil, err)
	case errors.Is(err, utils.ErrChallengeNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeChallengeNotFound,
			"Challenge not found", nil, err)
	case errors.Is(err, utils.ErrChallengeAlreadyUsed):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeChallengeAlreadyUsed,
			"Challenge has already been used", nil, err)
	case errors.Is(err, utils.ErrChallengeExpired):
		utils.RespondErrorWithCode(w, http.StatusGone, utils.ErrCodeChallengeExpired,
			"Challenge has expired", nil, err)
	case errors.Is(err, utils.ErrChallengeNonceMismatch):
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeChallengeNonceMismatch,
			"Presented nonce does not match the challenge", nil, err)
	case errors.Is(err, utils.ErrSignatureInvalid):
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeSignatureInvalid,
			"Signature verification failed", nil, err)
	case errors.Is(err, utils.ErrDuplicateVendor):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeDuplicateVendor,
			"A visit already exists for this vendor name", nil, err)
	case errors.Is(err, utils.ErrVisitNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeVisitNotFound,
			"Visit not found", nil, err)
	case errors.Is(err, utils.ErrVisitAlreadyClosed):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeVisitAlreadyClosed,
			"Visit is already closed", nil, err)
	case errors.Is(err, utils.ErrVendorMismatch):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeVendorMismatch,
			"Vendor name does not match the visit", nil, err)
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"An unexpected error occurred; safe to retry", nil, err)
	}
}
