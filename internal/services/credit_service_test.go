package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/repository"
)

func TestCreditService_GrantAndBalances(t *testing.T) {
	db := newTestDB(t)
	user, org := createOwnedOrganization(t, db)
	svc := NewCreditService(repository.NewCreditRepository(db), repository.NewOrganizationRepository(db))

	require.ErrorIs(t, svc.Grant(models.UserPurchaser(user.ID), 0), ErrInvalidCreditAmount)
	require.NoError(t, svc.Grant(models.UserPurchaser(user.ID), 4))
	require.NoError(t, svc.Grant(models.OrganizationPurchaser(org.ID), 9))

	balances, err := svc.Balances(user.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 4, balances.User.Unspent)
	assert.Nil(t, balances.User.OrganizationID)
	require.Len(t, balances.Organizations, 1)
	assert.Equal(t, "acme", balances.Organizations[0].OrganizationName)
	assert.EqualValues(t, 9, balances.Organizations[0].Unspent)
	assert.Zero(t, balances.Organizations[0].Spent)
}

func TestEnsureAvailable(t *testing.T) {
	db := newTestDB(t)
	user, org := createOwnedOrganization(t, db)
	creditRepo := repository.NewCreditRepository(db)
	require.NoError(t, creditRepo.Grant(models.UserPurchaser(user.ID), 5))

	assert.NoError(t, ensureAvailable(creditRepo, models.UserPurchaser(user.ID), 5))

	err := ensureAvailable(creditRepo, models.UserPurchaser(user.ID), 6)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Contains(t, err.Error(), "user has 5, 6 required")

	err = ensureAvailable(creditRepo, models.OrganizationPurchaser(org.ID), 1)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Contains(t, err.Error(), "organization has 0, 1 required")
}
