package repository

import (
	"fmt"
	"time"

	"github.com/yukikurage/classifieds-api/internal/database"
	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCreditRepository is a GORM implementation of CreditRepository
type GormCreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new CreditRepository
func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &GormCreditRepository{db: db}
}

// ownedBy restricts a credit query to the purchaser's credits
func ownedBy(p models.Purchaser) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.OrganizationID != nil {
			return db.Where("credits.organization_id = ?", *p.OrganizationID)
		}
		if p.UserID != nil {
			return db.Where("credits.user_id = ? AND credits.organization_id IS NULL", *p.UserID)
		}
		return db.Where("1 = 0")
	}
}

func (r *GormCreditRepository) count(p models.Purchaser, spent bool) (int64, error) {
	var count int64
	err := r.db.Model(&models.Credit{}).
		Scopes(ownedBy(p)).
		Where("credits.spent = ?", spent).
		Count(&count).Error
	return count, err
}

// CountUnspent counts the purchaser's unspent credits
func (r *GormCreditRepository) CountUnspent(p models.Purchaser) (int64, error) {
	return r.count(p, false)
}

// CountSpent counts the purchaser's spent credits
func (r *GormCreditRepository) CountSpent(p models.Purchaser) (int64, error) {
	return r.count(p, true)
}

// Grant adds amount unspent credits to the purchaser
func (r *GormCreditRepository) Grant(p models.Purchaser, amount int) error {
	if amount <= 0 {
		return nil
	}

	credits := make([]models.Credit, amount)
	for i := range credits {
		credits[i] = models.Credit{
			UserID:         p.UserID,
			OrganizationID: p.OrganizationID,
		}
	}

	return r.db.CreateInBatches(&credits, 500).Error
}

// Spend marks amount unspent credits as spent on the given purchase
func (r *GormCreditRepository) Spend(p models.Purchaser, amount int, purchaseType string, purchaseID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return spendCredits(tx, p, amount, purchaseType, purchaseID)
	})
}

// spendCredits locks amount unspent credits and marks them spent. It must run
// inside a transaction so the purchase and the spend commit together.
func spendCredits(tx *gorm.DB, p models.Purchaser, amount int, purchaseType string, purchaseID uint64) error {
	if amount <= 0 {
		return nil
	}

	var ids []uint64
	if err := tx.Model(&models.Credit{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(ownedBy(p), database.Unspent).
		Order("credits.id").
		Limit(amount).
		Pluck("credits.id", &ids).Error; err != nil {
		return fmt.Errorf("failed to select credits: %w", err)
	}

	if len(ids) < amount {
		return ErrInsufficientCredits
	}

	now := time.Now()
	res := tx.Model(&models.Credit{}).
		Where("id IN ? AND spent = ?", ids, false).
		Updates(map[string]interface{}{
			"spent":         true,
			"spent_at":      now,
			"purchase_type": purchaseType,
			"purchase_id":   purchaseID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to spend credits: %w", res.Error)
	}
	if res.RowsAffected != int64(amount) {
		// another purchase spent some of the selected credits first
		return ErrInsufficientCredits
	}

	return nil
}
