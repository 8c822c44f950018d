package utils

import "errors"

/*
Sentinel errors for the attestation and visit lifecycle pipeline.
Controllers do: if errors.Is(err, ErrXYZ) { ... } and map each to a
stable error code. None of these are fatal; anything else bubbling out
of the service layer is treated as an infrastructure failure.
*/
var (
	// Field-shape problems found after JSON decoding; wrapped with a
	// specific message, e.g. fmt.Errorf("%w: latitude out of range", ...)
	ErrInvalidPayload = errors.New("invalid_payload")

	// Precondition gate
	ErrLocationInaccurate  = errors.New("location_inaccurate")
	ErrPhotoNotFound       = errors.New("photo_not_found")
	ErrPhotoDigestMismatch = errors.New("photo_digest_mismatch")

	// Challenge consumption, in rejection precedence order
	ErrChallengeNotFound      = errors.New("challenge_not_found")
	ErrChallengeAlreadyUsed   = errors.New("challenge_already_used")
	ErrChallengeExpired       = errors.New("challenge_expired")
	ErrChallengeNonceMismatch = errors.New("challenge_nonce_mismatch")

	// Authentication
	ErrSignatureInvalid = errors.New("signature_invalid")

	// Visit lifecycle state conflicts
	ErrDuplicateVendor    = errors.New("duplicate_vendor")
	ErrVisitNotFound      = errors.New("visit_not_found")
	ErrVisitAlreadyClosed = errors.New("visit_already_closed")
	ErrVendorMismatch     = errors.New("vendor_mismatch")
)
