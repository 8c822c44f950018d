package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is an uploaded site photo. Digest is the lowercase hex SHA-256
// of Content, computed server-side at upload time; attestation events
// reference photos by ID and bind to them through the digest.
type Photo struct {
	ID          uuid.UUID `json:"id"`
	Digest      string    `json:"digest"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Content     []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
