package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCheckIn  EventType = "CHECK_IN"
	EventCheckOut EventType = "CHECK_OUT"
)

func (t EventType) Valid() bool {
	return t == EventCheckIn || t == EventCheckOut
}

type VisitState string

const (
	VisitStateOpen   VisitState = "open"
	VisitStateClosed VisitState = "closed"
)

// Visit pairs one CHECK_IN with at most one CHECK_OUT for a vendor name
// that is unique case-insensitively across all visits, forever. The
// vendor name is stored exactly as submitted on check-in; uniqueness is
// enforced by a unique index on LOWER(vendor_name).
type Visit struct {
	ID         uuid.UUID  `json:"id"`
	VendorName string     `json:"vendor_name"`
	State      VisitState `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AttestationEvent is an immutable, signed record of a check-in or
// check-out. Latitude, Longitude, AccuracyMeters and CapturedAt hold
// the exact decimal / timestamp strings the client submitted; the
// signature covers those byte-for-byte, so they are never re-rendered.
type AttestationEvent struct {
	ID               uuid.UUID         `json:"id"`
	VisitID          uuid.UUID         `json:"visit_id"`
	EventType        EventType         `json:"event_type"`
	VendorName       string            `json:"vendor_name"`
	Latitude         string            `json:"latitude"`
	Longitude        string            `json:"longitude"`
	AccuracyMeters   string            `json:"accuracy_meters"`
	CapturedAt       string            `json:"captured_at"`
	PhotoRef         uuid.UUID         `json:"photo_ref"`
	PhotoDigest      string            `json:"photo_digest"`
	DevicePublicKey  string            `json:"device_public_key"`
	Signature        string            `json:"signature"`
	ChallengeID      uuid.UUID         `json:"challenge_id"`
	ObserverMetadata map[string]string `json:"observer_metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}
