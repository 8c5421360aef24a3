package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/classifieds-api/internal/models"
)

func TestSponsorshipRepository_SaveWithPurchase(t *testing.T) {
	db := newTestDB(t)
	repo := NewSponsorshipRepository(db)
	credits := NewCreditRepository(db)
	user := createUser(t, db, "alice")
	org := createOrganization(t, db, "acme")
	purchaser := models.OrganizationPurchaser(org.ID)
	require.NoError(t, credits.Grant(purchaser, 150))

	expires := time.Now().AddDate(0, 1, 0)
	sponsorship := &models.Sponsorship{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Level:          models.SponsorshipBronze,
		Status:         models.SponsorshipStatusPending,
		ExpiresAt:      &expires,
	}
	require.NoError(t, repo.SaveWithPurchase(sponsorship, 100))
	require.NotZero(t, sponsorship.ID)

	found, err := repo.FindByOrganizationAndLevel(org.ID, models.SponsorshipBronze)
	require.NoError(t, err)
	assert.Equal(t, sponsorship.ID, found.ID)

	// second purchase cannot be paid and leaves the stored expiry untouched
	later := expires.AddDate(0, 1, 0)
	found.ExpiresAt = &later
	err = repo.SaveWithPurchase(found, 100)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	again, err := repo.FindByOrganizationAndLevel(org.ID, models.SponsorshipBronze)
	require.NoError(t, err)
	assert.WithinDuration(t, expires, *again.ExpiresAt, time.Second)

	unspent, err := credits.CountUnspent(purchaser)
	require.NoError(t, err)
	assert.EqualValues(t, 50, unspent)
}

func TestSponsorshipRepository_ActiveTagSponsorships(t *testing.T) {
	db := newTestDB(t)
	repo := NewSponsorshipRepository(db)
	user := createUser(t, db, "alice")
	org := createOrganization(t, db, "acme")
	tags, err := NewTagRepository(db).FindOrCreate([]string{"go", "rust"})
	require.NoError(t, err)

	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	require.NoError(t, db.Create(&models.Sponsorship{
		OrganizationID: org.ID, UserID: user.ID, Level: models.SponsorshipTag,
		Status: models.SponsorshipStatusLive, ExpiresAt: &future,
		SponsorableType: models.SponsorableTypeTag, SponsorableID: &tags[0].ID,
	}).Error)
	require.NoError(t, db.Create(&models.Sponsorship{
		OrganizationID: org.ID, UserID: user.ID, Level: models.SponsorshipTag,
		Status: models.SponsorshipStatusLive, ExpiresAt: &past,
		SponsorableType: models.SponsorableTypeTag, SponsorableID: &tags[1].ID,
	}).Error)

	active, err := repo.FindActiveForTag(tags[0].ID, now)
	require.NoError(t, err)
	assert.Equal(t, org.ID, active.OrganizationID)

	_, err = repo.FindActiveForTag(tags[1].ID, now)
	require.Error(t, err)

	all, err := repo.ListActiveTagSponsorships(now)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, tags[0].ID, *all[0].SponsorableID)

	listed, err := repo.ListByOrganization(org.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
