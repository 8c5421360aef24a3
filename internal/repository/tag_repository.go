package repository

import (
	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/gorm"
)

// GormTagRepository is a GORM implementation of TagRepository
type GormTagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &GormTagRepository{db: db}
}

// FindByName finds a tag by its normalized name
func (r *GormTagRepository) FindByName(name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListByIDs returns the tags with the given IDs
func (r *GormTagRepository) ListByIDs(ids []uint64) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}

	var tags []models.Tag
	if err := r.db.Where("id IN ?", ids).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// ListSupported returns supported tags ordered by name
func (r *GormTagRepository) ListSupported() ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.Where("supported = ?", true).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// FindOrCreate returns tags for every name, creating the missing ones
func (r *GormTagRepository) FindOrCreate(names []string) ([]models.Tag, error) {
	return findOrCreateTags(r.db, names)
}

func findOrCreateTags(db *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		if err := db.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
