package dtos

import "github.com/google/uuid"

type PhotoUploadResponse struct {
	PhotoRef uuid.UUID `json:"photo_ref"`
	Digest   string    `json:"digest"`
}
