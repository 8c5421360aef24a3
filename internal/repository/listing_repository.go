package repository

import (
	"time"

	"github.com/yukikurage/classifieds-api/internal/database"
	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormListingRepository is a GORM implementation of ListingRepository
type GormListingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new ListingRepository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &GormListingRepository{db: db}
}

// CreateWithPurchase creates the listing, applies tags and spends credits in one transaction
func (r *GormListingRepository) CreateWithPurchase(listing *models.ClassifiedListing, tagNames []string, cost int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		tags, err := findOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		listing.Tags = tags

		if err := tx.Omit("User", "Organization", "Category").Create(listing).Error; err != nil {
			return err
		}

		return spendCredits(tx, listing.Purchaser(), cost, models.PurchaseTypeListing, listing.ID)
	})
}

// FindByID finds a listing by ID with optional preloading
func (r *GormListingRepository) FindByID(id uint64, preload ...string) (*models.ClassifiedListing, error) {
	var listing models.ClassifiedListing
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&listing, id).Error; err != nil {
		return nil, err
	}

	return &listing, nil
}

// List retrieves listings with filtering and pagination, newest bump first
func (r *GormListingRepository) List(filter ListingFilter) ([]models.ClassifiedListing, int64, error) {
	var listings []models.ClassifiedListing

	query := r.db.Model(&models.ClassifiedListing{})

	if filter.PublishedOnly {
		query = query.Scopes(database.PublishedListings)
	}
	if filter.CategoryID != nil {
		query = query.Where("classified_listings.category_id = ?", *filter.CategoryID)
	}
	if filter.UserID != nil {
		query = query.Where("classified_listings.user_id = ?", *filter.UserID)
	}
	if filter.OrganizationID != nil {
		query = query.Where("classified_listings.organization_id = ?", *filter.OrganizationID)
	}
	if filter.TagName != "" {
		tagSubQuery := r.db.Table("listing_tags").
			Select("1").
			Joins("JOIN tags ON tags.id = listing_tags.tag_id").
			Where("listing_tags.classified_listing_id = classified_listings.id").
			Where("tags.name = ?", filter.TagName)
		query = query.Where("EXISTS (?)", tagSubQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(database.NewestBumpFirst)
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	if err := listQuery.
		Preload("User").
		Preload("Organization").
		Preload("Category").
		Preload("Tags").
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// Update saves the listing and, when tagNames is non-nil, replaces its tags
func (r *GormListingRepository) Update(listing *models.ClassifiedListing, tagNames []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(listing).Error; err != nil {
			return err
		}

		if tagNames == nil {
			return nil
		}

		tags, err := findOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}

		association := tx.Model(listing).Association("Tags")
		if len(tags) == 0 {
			return association.Clear()
		}
		return association.Replace(tags)
	})
}

// BumpWithPurchase spends the bump cost and refreshes bumped_at in one transaction
func (r *GormListingRepository) BumpWithPurchase(listing *models.ClassifiedListing, cost int, bumpedAt time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := spendCredits(tx, listing.Purchaser(), cost, models.PurchaseTypeListing, listing.ID); err != nil {
			return err
		}

		return tx.Model(&models.ClassifiedListing{}).
			Where("id = ?", listing.ID).
			Update("bumped_at", bumpedAt).Error
	})
	if err != nil {
		return err
	}

	listing.BumpedAt = bumpedAt
	return nil
}

// Delete soft deletes a listing
func (r *GormListingRepository) Delete(id uint64) error {
	return r.db.Delete(&models.ClassifiedListing{}, id).Error
}
