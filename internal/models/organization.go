package models

import (
	"time"

	"gorm.io/gorm"
)

type Organization struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	InviteCode string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members      []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Credits      []Credit             `gorm:"foreignKey:OrganizationID" json:"-"`
	Sponsorships []Sponsorship        `gorm:"foreignKey:OrganizationID" json:"sponsorships,omitempty"`
	Listings     []ClassifiedListing  `gorm:"foreignKey:OrganizationID" json:"-"`
}
