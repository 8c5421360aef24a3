package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/classifieds-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// PublishedListings restricts a listing query to the public feed
func PublishedListings(db *gorm.DB) *gorm.DB {
	return db.Where("classified_listings.published = ?", true)
}

// NewestBumpFirst orders listings by their last bump
func NewestBumpFirst(db *gorm.DB) *gorm.DB {
	return db.Order("classified_listings.bumped_at DESC").Order("classified_listings.id DESC")
}

// Unspent restricts a credit query to credits that can still be spent
func Unspent(db *gorm.DB) *gorm.DB {
	return db.Where("credits.spent = ?", false)
}
