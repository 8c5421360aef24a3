package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/classifieds-api/internal/authz"
	"github.com/yukikurage/classifieds-api/internal/constants"
	"github.com/yukikurage/classifieds-api/internal/logging"
	"github.com/yukikurage/classifieds-api/internal/markdown"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/ratelimit"
	"github.com/yukikurage/classifieds-api/internal/repository"
	"github.com/yukikurage/classifieds-api/internal/utils"
	"gorm.io/gorm"
)

// Listing update actions.
const (
	ListingActionBump      = "bump"
	ListingActionUnpublish = "unpublish"
	ListingActionPublish   = "publish"
)

var (
	ErrListingNotFound        = errors.New("listing not found")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleTooLong           = fmt.Errorf("title must be at most %d characters", constants.MaxListingTitle)
	ErrBodyRequired           = errors.New("body is required")
	ErrInvalidListingAction   = errors.New("action must be one of bump, unpublish, publish")
	ErrRateLimited            = errors.New("rate limit reached")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
)

// ListingServiceDeps bundles the collaborators of ListingService.
type ListingServiceDeps struct {
	Listings      repository.ListingRepository
	Categories    repository.CategoryRepository
	Credits       repository.CreditRepository
	Organizations repository.OrganizationRepository
	Authorizer    authz.Authorizer
	Limiter       ratelimit.Limiter
	TagSuggester  TagSuggester
	EditWindow    time.Duration
}

// ListingService handles classified listing business logic
type ListingService struct {
	listingRepo  repository.ListingRepository
	categoryRepo repository.CategoryRepository
	creditRepo   repository.CreditRepository
	orgRepo      repository.OrganizationRepository
	authorizer   authz.Authorizer
	limiter      ratelimit.Limiter
	suggester    TagSuggester
	editWindow   time.Duration
	now          func() time.Time
}

// NewListingService creates a new ListingService
func NewListingService(deps ListingServiceDeps) *ListingService {
	editWindow := deps.EditWindow
	if editWindow <= 0 {
		editWindow = 48 * time.Hour
	}
	return &ListingService{
		listingRepo:  deps.Listings,
		categoryRepo: deps.Categories,
		creditRepo:   deps.Credits,
		orgRepo:      deps.Organizations,
		authorizer:   deps.Authorizer,
		limiter:      deps.Limiter,
		suggester:    deps.TagSuggester,
		editWindow:   editWindow,
		now:          time.Now,
	}
}

// CreateListingInput represents input for creating a listing
type CreateListingInput struct {
	UserID            uint64
	OrganizationID    *uint64
	CategoryID        uint64
	Title             string
	BodyMarkdown      string
	TagList           string
	Location          string
	ContactViaConnect bool
	ExpiresAt         *time.Time
}

// UpdateListingInput represents input for updating a listing. Nil fields are left unchanged.
type UpdateListingInput struct {
	UserID            uint64
	ListingID         uint64
	Action            string
	Title             *string
	BodyMarkdown      *string
	TagList           *string
	Location          *string
	ContactViaConnect *bool
}

// ListListingsInput represents filters for the public listing feed
type ListListingsInput struct {
	CategorySlug string
	TagName      string
	Pagination   utils.PaginationParams
}

// ListOwnListingsInput selects the caller's listings, or an organization's when OrganizationID is set
type ListOwnListingsInput struct {
	UserID         uint64
	OrganizationID *uint64
	Pagination     utils.PaginationParams
}

// ListingPage is one page of the public feed
type ListingPage struct {
	Listings []models.ClassifiedListing
	Total    int64
	Category *models.ListingCategory
}

// ListingEditForm holds what the edit form of a listing needs
type ListingEditForm struct {
	Listing       *models.ClassifiedListing
	Categories    []models.ListingCategory
	Editable      bool
	EditableUntil time.Time
	Organizations []models.OrganizationMember
}

// Create rate limits, authorizes, charges and persists a new listing
func (s *ListingService) Create(ctx context.Context, input CreateListingInput) (*models.ClassifiedListing, error) {
	if err := ratelimit.Check(ctx, s.limiter, input.UserID, ratelimit.ActionListingCreation); err != nil {
		if errors.Is(err, ratelimit.ErrLimitReached) {
			logging.Warn("listing creation rate limited", map[string]interface{}{"user_id": input.UserID})
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.BodyMarkdown) == "" {
		return nil, ErrBodyRequired
	}
	tagNames, err := ParseTagList(input.TagList)
	if err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(input.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	if input.OrganizationID != nil {
		if err := s.authorizer.AuthorizeOrganizationListing(input.UserID, *input.OrganizationID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	listing := &models.ClassifiedListing{
		UserID:                input.UserID,
		OrganizationID:        input.OrganizationID,
		CategoryID:            category.ID,
		Title:                 title,
		BodyMarkdown:          input.BodyMarkdown,
		ProcessedHTML:         markdown.ToHTML(input.BodyMarkdown),
		Location:              strings.TrimSpace(input.Location),
		ContactViaConnect:     input.ContactViaConnect,
		Published:             true,
		BumpedAt:              now,
		OriginallyPublishedAt: &now,
		ExpiresAt:             input.ExpiresAt,
	}

	if err := ensureAvailable(s.creditRepo, listing.Purchaser(), category.Cost); err != nil {
		return nil, err
	}

	if err := s.listingRepo.CreateWithPurchase(listing, tagNames, category.Cost); err != nil {
		return nil, purchaseError("create listing", err)
	}
	listing.Category = *category

	if err := s.limiter.TrackLimitByAction(ctx, input.UserID, ratelimit.ActionListingCreation); err != nil {
		logging.Error("failed to track listing creation", err, map[string]interface{}{
			"user_id":    input.UserID,
			"listing_id": listing.ID,
		})
	}

	return listing, nil
}

// Update applies an action or field edits to a listing the user may manage
func (s *ListingService) Update(ctx context.Context, input UpdateListingInput) (*models.ClassifiedListing, error) {
	listing, err := s.findListing(input.ListingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.AuthorizeListingUpdate(input.UserID, listing); err != nil {
		return nil, err
	}

	switch input.Action {
	case ListingActionBump:
		if err := ensureAvailable(s.creditRepo, listing.Purchaser(), listing.Category.Cost); err != nil {
			return nil, err
		}
		if err := s.listingRepo.BumpWithPurchase(listing, listing.Category.Cost, s.now()); err != nil {
			return nil, purchaseError("bump listing", err)
		}
		return listing, nil

	case ListingActionUnpublish, ListingActionPublish:
		listing.Published = input.Action == ListingActionPublish
		if err := s.listingRepo.Update(listing, nil); err != nil {
			return nil, fmt.Errorf("failed to update listing: %w", err)
		}
		return listing, nil

	case "":
		return s.applyEdits(listing, input)

	default:
		return nil, ErrInvalidListingAction
	}
}

// applyEdits saves field edits. Title, body and tags only change inside the edit window.
func (s *ListingService) applyEdits(listing *models.ClassifiedListing, input UpdateListingInput) (*models.ClassifiedListing, error) {
	var tagNames []string

	if s.editable(listing) {
		if input.Title != nil {
			title, err := validateTitle(*input.Title)
			if err != nil {
				return nil, err
			}
			listing.Title = title
		}
		if input.BodyMarkdown != nil {
			if strings.TrimSpace(*input.BodyMarkdown) == "" {
				return nil, ErrBodyRequired
			}
			listing.BodyMarkdown = *input.BodyMarkdown
			listing.ProcessedHTML = markdown.ToHTML(*input.BodyMarkdown)
		}
		if input.TagList != nil {
			names, err := ParseTagList(*input.TagList)
			if err != nil {
				return nil, err
			}
			tagNames = names
		}
	}

	if input.Location != nil {
		listing.Location = strings.TrimSpace(*input.Location)
	}
	if input.ContactViaConnect != nil {
		listing.ContactViaConnect = *input.ContactViaConnect
	}

	if err := s.listingRepo.Update(listing, tagNames); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	return listing, nil
}

// Delete removes a listing the user may manage
func (s *ListingService) Delete(userID, listingID uint64) error {
	listing, err := s.findListing(listingID)
	if err != nil {
		return err
	}

	if err := s.authorizer.AuthorizeListingUpdate(userID, listing); err != nil {
		return err
	}

	if err := s.listingRepo.Delete(listing.ID); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

// List returns published listings, newest bump first
func (s *ListingService) List(input ListListingsInput) (*ListingPage, error) {
	filter := repository.ListingFilter{
		TagName:       NormalizeTag(input.TagName),
		PublishedOnly: true,
		Pagination:    input.Pagination,
	}

	page := &ListingPage{}
	if input.CategorySlug != "" {
		category, err := s.categoryRepo.FindBySlug(input.CategorySlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to find category: %w", err)
		}
		filter.CategoryID = &category.ID
		page.Category = category
	}

	listings, total, err := s.listingRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	page.Listings = listings
	page.Total = total
	return page, nil
}

// ListOwn returns published and unpublished listings posted by the user, or
// on behalf of an organization the user belongs to
func (s *ListingService) ListOwn(input ListOwnListingsInput) (*ListingPage, error) {
	filter := repository.ListingFilter{Pagination: input.Pagination}
	if input.OrganizationID != nil {
		if err := s.authorizer.AuthorizeOrganizationFeed(input.UserID, *input.OrganizationID); err != nil {
			return nil, err
		}
		filter.OrganizationID = input.OrganizationID
	} else {
		filter.UserID = &input.UserID
	}

	listings, total, err := s.listingRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return &ListingPage{Listings: listings, Total: total}, nil
}

// Categories returns every listing category
func (s *ListingService) Categories() ([]models.ListingCategory, error) {
	categories, err := s.categoryRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// EditForm returns the data the edit form of a listing needs
func (s *ListingService) EditForm(userID, listingID uint64) (*ListingEditForm, error) {
	listing, err := s.findListing(listingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.AuthorizeListingUpdate(userID, listing); err != nil {
		return nil, err
	}

	categories, err := s.Categories()
	if err != nil {
		return nil, err
	}

	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	return &ListingEditForm{
		Listing:       listing,
		Categories:    categories,
		Editable:      s.editable(listing),
		EditableUntil: listing.BumpedAt.Add(s.editWindow),
		Organizations: memberships,
	}, nil
}

// SuggestTags proposes normalized tags for a listing draft
func (s *ListingService) SuggestTags(ctx context.Context, title, body string) ([]string, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
		return nil, ErrBodyRequired
	}

	suggested, err := s.suggester.SuggestTags(ctx, title, body)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tags: %w", err)
	}

	tags := []string{}
	seen := map[string]bool{}
	for _, raw := range suggested {
		name := NormalizeTag(raw)
		if name == "" || seen[name] || !validTagLength(name) {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
		if len(tags) == constants.MaxSuggestedTags {
			break
		}
	}

	return tags, nil
}

func (s *ListingService) findListing(id uint64) (*models.ClassifiedListing, error) {
	listing, err := s.listingRepo.FindByID(id, "Tags", "Category", "User", "Organization")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return listing, nil
}

func (s *ListingService) editable(listing *models.ClassifiedListing) bool {
	return s.now().Sub(listing.BumpedAt) <= s.editWindow
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > constants.MaxListingTitle {
		return "", ErrTitleTooLong
	}
	return title, nil
}
