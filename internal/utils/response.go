package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload         = "invalid_payload"
	ErrCodeValidation             = "validation_error"
	ErrCodeLocationInaccurate     = "location_inaccurate"
	ErrCodePhotoNotFound          = "photo_not_found"
	ErrCodePhotoDigestMismatch    = "photo_digest_mismatch"
	ErrCodePhotoTooLarge          = "photo_too_large"
	ErrCodeChallengeNotFound      = "challenge_not_found"
	ErrCodeChallengeAlreadyUsed   = "challenge_already_used"
	ErrCodeChallengeExpired       = "challenge_expired"
	ErrCodeChallengeNonceMismatch = "challenge_nonce_mismatch"
	ErrCodeSignatureInvalid       = "signature_invalid"
	ErrCodeDuplicateVendor        = "duplicate_vendor"
	ErrCodeVisitNotFound          = "visit_not_found"
	ErrCodeVisitAlreadyClosed     = "visit_already_closed"
	ErrCodeVendorMismatch         = "vendor_mismatch"
	ErrCodeNotFound               = "not_found"
	ErrCodeInternal               = "internal_server_error"
)

// ErrorResponse carries a stable machine-readable code alongside the
// human-readable message. Details is optional extra context.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RespondErrorWithCode builds a JSON error response with a standard
// code and message. The optional `details` is included if non-nil.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errBody := ErrorResponse{
		Code:    errorCode,
		Message: publicMessage,
	}
	if details != nil {
		errBody.Details = details
	}
	_ = json.NewEncoder(w).Encode(errBody)

	if len(devErrs) > 0 && devErrs[0] != nil {
		Logger.WithFields(logrus.Fields{
			"status": status,
			"error":  devErrs[0].Error(),
		}).Warn(publicMessage)
	} else {
		Logger.WithFields(logrus.Fields{
			"status": status,
		}).Warn(publicMessage)
	}
}

// RespondWithJSON for successful cases.
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
