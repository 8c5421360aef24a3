package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/gorm"
)

// Signup failures, one per insert of the signup transaction.
var (
	ErrCreateUser               = errors.New("user repository: create user failed")
	ErrCreateOrganization       = errors.New("user repository: create organization failed")
	ErrCreateOrganizationMember = errors.New("user repository: create organization member failed")
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithPersonalOrganization inserts the account, the organization that can hold its
// credits and listings, and the owner membership linking them. Nothing is kept if any insert fails.
func (r *GormUserRepository) CreateWithPersonalOrganization(user *models.User, org *models.Organization, member *models.OrganizationMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := insert(tx, user, ErrCreateUser); err != nil {
			return err
		}
		if err := insert(tx, org, ErrCreateOrganization); err != nil {
			return err
		}

		member.OrganizationID = org.ID
		member.UserID = user.ID
		return insert(tx, member, ErrCreateOrganizationMember)
	})
}

// insert creates value, wrapping a failure with the sentinel naming the step.
func insert(tx *gorm.DB, value interface{}, sentinel error) error {
	if err := tx.Create(value).Error; err != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	return r.first(r.db.Where("id = ?", id))
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	return r.first(r.db.Where("username = ?", username))
}

func (r *GormUserRepository) first(query *gorm.DB) (*models.User, error) {
	var user models.User
	if err := query.First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
