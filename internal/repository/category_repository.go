package repository

import (
	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/gorm"
)

// GormCategoryRepository is a GORM implementation of CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List returns every category ordered by name
func (r *GormCategoryRepository) List() ([]models.ListingCategory, error) {
	var categories []models.ListingCategory
	if err := r.db.Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindByID finds a category by ID
func (r *GormCategoryRepository) FindByID(id uint64) (*models.ListingCategory, error) {
	var category models.ListingCategory
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindBySlug finds a category by slug
func (r *GormCategoryRepository) FindBySlug(slug string) (*models.ListingCategory, error) {
	var category models.ListingCategory
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
