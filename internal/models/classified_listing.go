package models

import (
	"time"

	"gorm.io/gorm"
)

type ClassifiedListing struct {
	ID                    uint64         `gorm:"primarykey" json:"id"`
	UserID                uint64         `gorm:"not null;index" json:"user_id"`
	OrganizationID        *uint64        `gorm:"index" json:"organization_id"`
	CategoryID            uint64         `gorm:"not null;index" json:"category_id"`
	Title                 string         `gorm:"type:varchar(128);not null" json:"title"`
	BodyMarkdown          string         `gorm:"type:text;not null" json:"body_markdown"`
	ProcessedHTML         string         `gorm:"type:text" json:"processed_html"`
	Location              string         `gorm:"type:varchar(255)" json:"location"`
	ContactViaConnect     bool           `gorm:"not null;default:false" json:"contact_via_connect"`
	Published             bool           `gorm:"not null;index" json:"published"`
	BumpedAt              time.Time      `gorm:"index" json:"bumped_at"`
	OriginallyPublishedAt *time.Time     `json:"originally_published_at"`
	ExpiresAt             *time.Time     `json:"expires_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User         User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Organization *Organization   `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Category     ListingCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags         []Tag           `gorm:"many2many:listing_tags;" json:"tags,omitempty"`
}

// Purchaser returns who pays for this listing: its organization when it is
// organization-owned, otherwise its author.
func (l *ClassifiedListing) Purchaser() Purchaser {
	if l.OrganizationID != nil {
		return OrganizationPurchaser(*l.OrganizationID)
	}
	return UserPurchaser(l.UserID)
}

// TagNames returns the names of the loaded tags.
func (l *ClassifiedListing) TagNames() []string {
	names := make([]string, len(l.Tags))
	for i, t := range l.Tags {
		names[i] = t.Name
	}
	return names
}
