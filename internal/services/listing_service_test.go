package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/classifieds-api/internal/authz"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/ratelimit"
	"github.com/yukikurage/classifieds-api/internal/repository"
	"gorm.io/gorm"
)

type stubSuggester struct {
	tags []string
}

func (s stubSuggester) SuggestTags(ctx context.Context, title, body string) ([]string, error) {
	return s.tags, nil
}

func newListingService(db *gorm.DB, suggester TagSuggester) *ListingService {
	orgRepo := repository.NewOrganizationRepository(db)
	return NewListingService(ListingServiceDeps{
		Listings:      repository.NewListingRepository(db),
		Categories:    repository.NewCategoryRepository(db),
		Credits:       repository.NewCreditRepository(db),
		Organizations: orgRepo,
		Authorizer:    authz.NewMembershipAuthorizer(orgRepo),
		Limiter:       ratelimit.NewGormLimiter(db, ratelimit.Rules{}),
		TagSuggester:  suggester,
	})
}

func TestListingService_SuggestTagsNormalizes(t *testing.T) {
	db := newTestDB(t)
	svc := newListingService(db, stubSuggester{tags: []string{
		"Go", "#go", "Kubernetes", "", "a", "b", "c", "d", "e", "f", "g",
	}})

	tags, err := svc.SuggestTags(context.Background(), "Go developer", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "kubernetes", "a", "b", "c", "d", "e", "f"}, tags)
}

func TestListingService_SuggestTagsCountsCharacters(t *testing.T) {
	db := newTestDB(t)
	fits := strings.Repeat("ß", maxTagLength)
	svc := newListingService(db, stubSuggester{tags: []string{fits, fits + "ß"}})

	tags, err := svc.SuggestTags(context.Background(), "Straße", "")
	require.NoError(t, err)
	assert.Equal(t, []string{fits}, tags)

	parsed, err := ParseTagList(strings.Join(tags, ","))
	require.NoError(t, err)
	assert.Equal(t, tags, parsed)
}

func TestListingService_SuggestTagsRequiresInput(t *testing.T) {
	db := newTestDB(t)
	svc := newListingService(db, stubSuggester{})

	_, err := svc.SuggestTags(context.Background(), " ", "")
	require.ErrorIs(t, err, ErrBodyRequired)
}

func TestListingService_EditWindowDefaultsAndBoundary(t *testing.T) {
	db := newTestDB(t)
	svc := newListingService(db, nil)
	assert.Equal(t, 48*time.Hour, svc.editWindow)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	assert.True(t, svc.editable(&models.ClassifiedListing{BumpedAt: now.Add(-48 * time.Hour)}))
	assert.False(t, svc.editable(&models.ClassifiedListing{BumpedAt: now.Add(-48*time.Hour - time.Second)}))
}

func TestListingService_ListByTag(t *testing.T) {
	db := newTestDB(t)
	svc := newListingService(db, nil)
	user, _ := createOwnedOrganization(t, db)
	require.NoError(t, repository.NewCreditRepository(db).Grant(models.UserPurchaser(user.ID), 2))

	misc, err := repository.NewCategoryRepository(db).FindBySlug("misc")
	require.NoError(t, err)

	for i, tags := range []string{"go,backend", "rust"} {
		_, err := svc.Create(context.Background(), CreateListingInput{
			UserID:       user.ID,
			CategoryID:   misc.ID,
			Title:        "Listing",
			BodyMarkdown: "body",
			TagList:      tags,
		})
		require.NoError(t, err, "listing %d", i)
	}

	page, err := svc.List(ListListingsInput{TagName: "GO"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Listings, 1)
	assert.ElementsMatch(t, []string{"go", "backend"}, page.Listings[0].TagNames())
}
