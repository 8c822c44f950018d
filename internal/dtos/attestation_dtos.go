package dtos

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ChallengeResponse struct {
	ChallengeID uuid.UUID `json:"challenge_id"`
	Nonce       string    `json:"nonce"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SubmitEventRequest carries one attestation event. The geographic
// fields are json.Number so the exact decimal text the device signed
// survives decoding; captured_at stays a raw RFC 3339 string for the
// same reason.
type SubmitEventRequest struct {
	EventType        string            `json:"event_type" validate:"required,oneof=CHECK_IN CHECK_OUT"`
	VisitID          string            `json:"visit_id,omitempty" validate:"omitempty,uuid4"`
	VendorName       string            `json:"vendor_name" validate:"required,max=200"`
	Latitude         json.Number       `json:"latitude" validate:"required"`
	Longitude        json.Number       `json:"longitude" validate:"required"`
	AccuracyMeters   json.Number       `json:"accuracy_meters" validate:"required"`
	CapturedAt       string            `json:"captured_at" validate:"required"`
	PhotoRef         string            `json:"photo_ref" validate:"required,uuid4"`
	PhotoDigest      string            `json:"photo_digest" validate:"required,len=64"`
	DevicePublicKey  string            `json:"device_public_key" validate:"required,max=4096"`
	Signature        string            `json:"signature" validate:"required,max=4096"`
	ChallengeID      string            `json:"challenge_id" validate:"required,uuid4"`
	ChallengeNonce   string            `json:"challenge_nonce" validate:"required,max=128"`
	ObserverMetadata map[string]string `json:"observer_metadata,omitempty"`
}

type SubmitEventResponse struct {
	VisitID uuid.UUID `json:"visit_id"`
	EventID uuid.UUID `json:"event_id"`
}
