package dto

import (
	"time"

	"github.com/yukikurage/classifieds-api/internal/models"
)

// SponsorshipDTO represents a sponsorship in API responses
type SponsorshipDTO struct {
	ID                    uint64                   `json:"id"`
	OrganizationID        uint64                   `json:"organization_id"`
	Level                 models.SponsorshipLevel  `json:"level"`
	Status                models.SponsorshipStatus `json:"status"`
	ExpiresAt             *time.Time               `json:"expires_at"`
	Instructions          string                   `json:"instructions"`
	InstructionsUpdatedAt *time.Time               `json:"instructions_updated_at,omitempty"`
	SponsorableType       string                   `json:"sponsorable_type,omitempty"`
	SponsorableID         *uint64                  `json:"sponsorable_id,omitempty"`
}

// ToSponsorshipDTO converts a Sponsorship model to SponsorshipDTO
func ToSponsorshipDTO(s models.Sponsorship) SponsorshipDTO {
	return SponsorshipDTO{
		ID:                    s.ID,
		OrganizationID:        s.OrganizationID,
		Level:                 s.Level,
		Status:                s.Status,
		ExpiresAt:             s.ExpiresAt,
		Instructions:          s.Instructions,
		InstructionsUpdatedAt: s.InstructionsUpdatedAt,
		SponsorableType:       s.SponsorableType,
		SponsorableID:         s.SponsorableID,
	}
}
