package models

import "time"

// ListingCategory groups listings and decides what they cost.
type ListingCategory struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
	Cost      int       `gorm:"not null;default:1" json:"cost"`
	Rules     string    `gorm:"type:text" json:"rules"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
