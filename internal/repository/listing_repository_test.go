package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/utils"
	"gorm.io/gorm"
)

func newListing(userID, categoryID uint64, title string, bumpedAt time.Time) *models.ClassifiedListing {
	return &models.ClassifiedListing{
		UserID:       userID,
		CategoryID:   categoryID,
		Title:        title,
		BodyMarkdown: "body",
		Published:    true,
		BumpedAt:     bumpedAt,
	}
}

func TestListingRepository_CreateWithPurchase(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	credits := NewCreditRepository(db)
	user := createUser(t, db, "alice")
	jobs := findCategory(t, db, "jobs")

	require.NoError(t, credits.Grant(models.UserPurchaser(user.ID), 30))

	listing := newListing(user.ID, jobs.ID, "Hiring Go developers", time.Now())
	require.NoError(t, repo.CreateWithPurchase(listing, []string{"go", "hiring"}, jobs.Cost))
	require.NotZero(t, listing.ID)

	found, err := repo.FindByID(listing.ID, "Tags", "Category")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"go", "hiring"}, found.TagNames())
	assert.Equal(t, "jobs", found.Category.Slug)

	unspent, err := credits.CountUnspent(models.UserPurchaser(user.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 5, unspent)

	var spent []models.Credit
	require.NoError(t, db.Where("purchase_type = ? AND purchase_id = ?", models.PurchaseTypeListing, listing.ID).Find(&spent).Error)
	assert.Len(t, spent, 25)
}

func TestListingRepository_CreateWithoutCreditsRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	user := createUser(t, db, "alice")
	misc := findCategory(t, db, "misc")

	listing := newListing(user.ID, misc.ID, "Free stuff", time.Now())
	err := repo.CreateWithPurchase(listing, []string{"free"}, misc.Cost)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	var count int64
	require.NoError(t, db.Model(&models.ClassifiedListing{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListingRepository_ListFiltersAndOrders(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	credits := NewCreditRepository(db)
	user := createUser(t, db, "alice")
	misc := findCategory(t, db, "misc")
	events := findCategory(t, db, "events")
	require.NoError(t, credits.Grant(models.UserPurchaser(user.ID), 10))

	now := time.Now()
	older := newListing(user.ID, misc.ID, "older", now.Add(-2*time.Hour))
	newer := newListing(user.ID, misc.ID, "newer", now.Add(-time.Hour))
	event := newListing(user.ID, events.ID, "event", now)
	hidden := newListing(user.ID, misc.ID, "hidden", now)
	hidden.Published = false

	require.NoError(t, repo.CreateWithPurchase(older, []string{"go"}, 1))
	require.NoError(t, repo.CreateWithPurchase(newer, []string{"rust"}, 1))
	require.NoError(t, repo.CreateWithPurchase(event, []string{"go"}, 1))
	require.NoError(t, repo.CreateWithPurchase(hidden, []string{"go"}, 1))

	listings, total, err := repo.List(ListingFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, listings, 3)
	assert.Equal(t, "event", listings[0].Title)
	assert.Equal(t, "newer", listings[1].Title)
	assert.Equal(t, "older", listings[2].Title)

	listings, total, err = repo.List(ListingFilter{PublishedOnly: true, CategoryID: &misc.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "newer", listings[0].Title)

	listings, total, err = repo.List(ListingFilter{PublishedOnly: true, TagName: "go"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "event", listings[0].Title)
	assert.Equal(t, "older", listings[1].Title)

	listings, total, err = repo.List(ListingFilter{
		PublishedOnly: true,
		Pagination:    utils.PaginationParams{Page: 2, Limit: 1, Offset: 1},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, listings, 1)
	assert.Equal(t, "newer", listings[0].Title)

	_, total, err = repo.List(ListingFilter{UserID: &user.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestListingRepository_UpdateReplacesTagsOnlyWhenGiven(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	credits := NewCreditRepository(db)
	user := createUser(t, db, "alice")
	misc := findCategory(t, db, "misc")
	require.NoError(t, credits.Grant(models.UserPurchaser(user.ID), 1))

	listing := newListing(user.ID, misc.ID, "title", time.Now())
	require.NoError(t, repo.CreateWithPurchase(listing, []string{"go", "web"}, 1))

	listing.Location = "Berlin"
	require.NoError(t, repo.Update(listing, nil))

	found, err := repo.FindByID(listing.ID, "Tags")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", found.Location)
	assert.ElementsMatch(t, []string{"go", "web"}, found.TagNames())

	require.NoError(t, repo.Update(found, []string{"rust"}))
	found, err = repo.FindByID(listing.ID, "Tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, found.TagNames())

	require.NoError(t, repo.Update(found, []string{}))
	found, err = repo.FindByID(listing.ID, "Tags")
	require.NoError(t, err)
	assert.Empty(t, found.Tags)
}

func TestListingRepository_BumpWithPurchase(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	credits := NewCreditRepository(db)
	user := createUser(t, db, "alice")
	products := findCategory(t, db, "products")
	purchaser := models.UserPurchaser(user.ID)
	require.NoError(t, credits.Grant(purchaser, 13))

	created := time.Now().Add(-72 * time.Hour)
	listing := newListing(user.ID, products.ID, "tool", created)
	require.NoError(t, repo.CreateWithPurchase(listing, nil, products.Cost))

	bumpedAt := time.Now()
	require.NoError(t, repo.BumpWithPurchase(listing, products.Cost, bumpedAt))
	assert.Equal(t, bumpedAt, listing.BumpedAt)

	found, err := repo.FindByID(listing.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, bumpedAt, found.BumpedAt, time.Second)

	// 5 for the listing, 5 for the bump, 3 left is not enough for another bump
	err = repo.BumpWithPurchase(listing, products.Cost, time.Now())
	require.ErrorIs(t, err, ErrInsufficientCredits)

	unspent, err := credits.CountUnspent(purchaser)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unspent)
}

func TestListingRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	credits := NewCreditRepository(db)
	user := createUser(t, db, "alice")
	misc := findCategory(t, db, "misc")
	require.NoError(t, credits.Grant(models.UserPurchaser(user.ID), 1))

	listing := newListing(user.ID, misc.ID, "title", time.Now())
	require.NoError(t, repo.CreateWithPurchase(listing, nil, 1))
	require.NoError(t, repo.Delete(listing.ID))

	_, err := repo.FindByID(listing.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
