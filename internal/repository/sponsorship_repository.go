package repository

import (
	"time"

	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/gorm"
)

// GormSponsorshipRepository is a GORM implementation of SponsorshipRepository
type GormSponsorshipRepository struct {
	db *gorm.DB
}

// NewSponsorshipRepository creates a new SponsorshipRepository
func NewSponsorshipRepository(db *gorm.DB) SponsorshipRepository {
	return &GormSponsorshipRepository{db: db}
}

// ListByOrganization lists an organization's sponsorships, newest first
func (r *GormSponsorshipRepository) ListByOrganization(orgID uint64) ([]models.Sponsorship, error) {
	var sponsorships []models.Sponsorship
	if err := r.db.Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&sponsorships).Error; err != nil {
		return nil, err
	}
	return sponsorships, nil
}

// FindByOrganizationAndLevel finds the organization's sponsorship at a level
func (r *GormSponsorshipRepository) FindByOrganizationAndLevel(orgID uint64, level models.SponsorshipLevel) (*models.Sponsorship, error) {
	var sponsorship models.Sponsorship
	if err := r.db.Where("organization_id = ? AND level = ?", orgID, level).
		Order("created_at DESC").
		First(&sponsorship).Error; err != nil {
		return nil, err
	}
	return &sponsorship, nil
}

// FindActiveForTag finds the unexpired sponsorship of a tag
func (r *GormSponsorshipRepository) FindActiveForTag(tagID uint64, now time.Time) (*models.Sponsorship, error) {
	var sponsorship models.Sponsorship
	if err := r.db.Where("level = ? AND sponsorable_type = ? AND sponsorable_id = ? AND expires_at > ?",
		models.SponsorshipTag, models.SponsorableTypeTag, tagID, now).
		First(&sponsorship).Error; err != nil {
		return nil, err
	}
	return &sponsorship, nil
}

// ListActiveTagSponsorships lists all unexpired tag sponsorships
func (r *GormSponsorshipRepository) ListActiveTagSponsorships(now time.Time) ([]models.Sponsorship, error) {
	var sponsorships []models.Sponsorship
	if err := r.db.Where("level = ? AND sponsorable_type = ? AND expires_at > ?",
		models.SponsorshipTag, models.SponsorableTypeTag, now).
		Find(&sponsorships).Error; err != nil {
		return nil, err
	}
	return sponsorships, nil
}

// SaveWithPurchase creates or updates the sponsorship and spends organization credits in one transaction
func (r *GormSponsorshipRepository) SaveWithPurchase(sponsorship *models.Sponsorship, cost int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Organization").Save(sponsorship).Error; err != nil {
			return err
		}

		purchaser := models.OrganizationPurchaser(sponsorship.OrganizationID)
		return spendCredits(tx, purchaser, cost, models.PurchaseTypeSponsorship, sponsorship.ID)
	})
}
