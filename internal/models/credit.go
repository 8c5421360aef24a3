package models

import "time"

// Purchase types recorded on spent credits.
const (
	PurchaseTypeListing     = "ClassifiedListing"
	PurchaseTypeSponsorship = "Sponsorship"
)

// Credit is one unit of prepaid currency. Exactly one of UserID and
// OrganizationID is set.
type Credit struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	UserID         *uint64    `gorm:"index" json:"user_id"`
	OrganizationID *uint64    `gorm:"index" json:"organization_id"`
	Spent          bool       `gorm:"not null;default:false;index" json:"spent"`
	SpentAt        *time.Time `json:"spent_at"`
	PurchaseType   string     `gorm:"type:varchar(50)" json:"purchase_type,omitempty"`
	PurchaseID     *uint64    `json:"purchase_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Purchaser identifies who pays for a purchase: a user or an organization.
type Purchaser struct {
	UserID         *uint64
	OrganizationID *uint64
}

// UserPurchaser returns a purchaser backed by a user's own credits.
func UserPurchaser(userID uint64) Purchaser {
	return Purchaser{UserID: &userID}
}

// OrganizationPurchaser returns a purchaser backed by an organization's credits.
func OrganizationPurchaser(orgID uint64) Purchaser {
	return Purchaser{OrganizationID: &orgID}
}

// IsOrganization reports whether the organization pays.
func (p Purchaser) IsOrganization() bool {
	return p.OrganizationID != nil
}
