package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/classifieds-api/internal/database"
	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, database.Seed(db))
	return db
}

func createOwnedOrganization(t *testing.T, db *gorm.DB) (*models.User, *models.Organization) {
	t.Helper()

	user := &models.User{Username: "owner", PasswordHash: "hashed"}
	require.NoError(t, db.Create(user).Error)

	org := &models.Organization{Name: "acme", InviteCode: "ACME_CODE"}
	require.NoError(t, db.Create(org).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           models.RoleOwner,
	}).Error)

	return user, org
}
