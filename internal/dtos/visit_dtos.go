package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/verisite/visit-service/internal/models"
)

type VisitDTO struct {
	ID         uuid.UUID                  `json:"id"`
	VendorName string                     `json:"vendor_name"`
	State      string                     `json:"state"`
	CreatedAt  time.Time                  `json:"created_at"`
	Events     []*models.AttestationEvent `json:"events,omitempty"`
}

func NewVisitDTO(v *models.Visit, events []*models.AttestationEvent) *VisitDTO {
	return &VisitDTO{
		ID:         v.ID,
		VendorName: v.VendorName,
		State:      string(v.State),
		CreatedAt:  v.CreatedAt,
		Events:     events,
	}
}
