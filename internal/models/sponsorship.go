package models

import "time"

type SponsorshipLevel string

const (
	SponsorshipGold   SponsorshipLevel = "gold"
	SponsorshipSilver SponsorshipLevel = "silver"
	SponsorshipBronze SponsorshipLevel = "bronze"
	SponsorshipTag    SponsorshipLevel = "tag"
	SponsorshipMedia  SponsorshipLevel = "media"
	SponsorshipDevrel SponsorshipLevel = "devrel"
)

// MetalLevels are the tiered levels an organization holds at most one of.
var MetalLevels = []SponsorshipLevel{SponsorshipGold, SponsorshipSilver, SponsorshipBronze}

// sponsorshipCredits maps self-serve levels to their price in credits.
var sponsorshipCredits = map[SponsorshipLevel]int{
	SponsorshipGold:   6000,
	SponsorshipSilver: 500,
	SponsorshipBronze: 100,
	SponsorshipTag:    300,
	SponsorshipDevrel: 500,
}

// Cost returns the credit price of the level; ok is false for levels that
// cannot be bought through the purchase form.
func (l SponsorshipLevel) Cost() (int, bool) {
	cost, ok := sponsorshipCredits[l]
	return cost, ok
}

func (l SponsorshipLevel) IsMetal() bool {
	for _, m := range MetalLevels {
		if l == m {
			return true
		}
	}
	return false
}

type SponsorshipStatus string

const (
	SponsorshipStatusNone    SponsorshipStatus = "none"
	SponsorshipStatusPending SponsorshipStatus = "pending"
	SponsorshipStatusLive    SponsorshipStatus = "live"
)

const SponsorableTypeTag = "Tag"

type Sponsorship struct {
	ID                    uint64            `gorm:"primarykey" json:"id"`
	OrganizationID        uint64            `gorm:"not null;index" json:"organization_id"`
	UserID                uint64            `gorm:"not null" json:"user_id"`
	Level                 SponsorshipLevel  `gorm:"type:varchar(20);not null;index" json:"level"`
	Status                SponsorshipStatus `gorm:"type:varchar(20);not null;default:'none'" json:"status"`
	ExpiresAt             *time.Time        `json:"expires_at"`
	Instructions          string            `gorm:"type:text" json:"instructions"`
	InstructionsUpdatedAt *time.Time        `json:"instructions_updated_at"`
	SponsorableType       string            `gorm:"type:varchar(30)" json:"sponsorable_type,omitempty"`
	SponsorableID         *uint64           `gorm:"index" json:"sponsorable_id,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

// Active reports whether the sponsorship has not yet expired at now.
func (s *Sponsorship) Active(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.After(now)
}
