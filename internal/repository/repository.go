package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/utils"
)

// ErrInsufficientCredits is returned when a purchaser has fewer unspent credits than a purchase costs.
var ErrInsufficientCredits = errors.New("insufficient unspent credits")

// ListingRepository defines the interface for classified listing data access
type ListingRepository interface {
	// CreateWithPurchase creates the listing, applies its tags and spends cost credits atomically
	CreateWithPurchase(listing *models.ClassifiedListing, tagNames []string, cost int) error

	// FindByID finds a listing by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.ClassifiedListing, error)

	// List retrieves listings with filtering and pagination
	List(filter ListingFilter) ([]models.ClassifiedListing, int64, error)

	// Update saves the listing; tags are replaced when tagNames is non-nil
	Update(listing *models.ClassifiedListing, tagNames []string) error

	// BumpWithPurchase spends cost credits and moves bumped_at to bumpedAt atomically
	BumpWithPurchase(listing *models.ClassifiedListing, cost int, bumpedAt time.Time) error

	// Delete soft deletes a listing
	Delete(id uint64) error
}

// ListingFilter holds filtering options for listing classified listings
type ListingFilter struct {
	CategoryID     *uint64
	TagName        string
	UserID         *uint64
	OrganizationID *uint64
	PublishedOnly  bool

	// Pagination is applied when Limit is positive
	Pagination utils.PaginationParams
}

// CategoryRepository defines the interface for listing category data access
type CategoryRepository interface {
	// List returns every category ordered by name
	List() ([]models.ListingCategory, error)

	// FindByID finds a category by ID
	FindByID(id uint64) (*models.ListingCategory, error)

	// FindBySlug finds a category by slug
	FindBySlug(slug string) (*models.ListingCategory, error)
}

// TagRepository defines the interface for tag data access
type TagRepository interface {
	// FindByName finds a tag by its normalized name
	FindByName(name string) (*models.Tag, error)

	// ListByIDs returns the tags with the given IDs
	ListByIDs(ids []uint64) ([]models.Tag, error)

	// ListSupported returns supported tags ordered by name
	ListSupported() ([]models.Tag, error)

	// FindOrCreate returns tags for every name, creating the missing ones
	FindOrCreate(names []string) ([]models.Tag, error)
}

// CreditRepository defines the interface for credit ledger access
type CreditRepository interface {
	// CountUnspent counts the purchaser's unspent credits
	CountUnspent(purchaser models.Purchaser) (int64, error)

	// CountSpent counts the purchaser's spent credits
	CountSpent(purchaser models.Purchaser) (int64, error)

	// Grant adds amount unspent credits to the purchaser
	Grant(purchaser models.Purchaser, amount int) error

	// Spend marks amount unspent credits as spent on the given purchase
	Spend(purchaser models.Purchaser, amount int, purchaseType string, purchaseID uint64) error
}

// SponsorshipRepository defines the interface for sponsorship data access
type SponsorshipRepository interface {
	// ListByOrganization lists an organization's sponsorships, newest first
	ListByOrganization(orgID uint64) ([]models.Sponsorship, error)

	// FindByOrganizationAndLevel finds the organization's sponsorship at a level
	FindByOrganizationAndLevel(orgID uint64, level models.SponsorshipLevel) (*models.Sponsorship, error)

	// FindActiveForTag finds the unexpired sponsorship of a tag
	FindActiveForTag(tagID uint64, now time.Time) (*models.Sponsorship, error)

	// ListActiveTagSponsorships lists all unexpired tag sponsorships
	ListActiveTagSponsorships(now time.Time) ([]models.Sponsorship, error)

	// SaveWithPurchase creates or updates the sponsorship and spends cost organization credits atomically
	SaveWithPurchase(sponsorship *models.Sponsorship, cost int) error
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// CreateWithOwner creates an organization and its owner membership atomically
	CreateWithOwner(org *models.Organization, owner *models.OrganizationMember) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(code string) (*models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// Delete deletes an organization with its listings, sponsorships, credits and memberships
	Delete(id uint64) error

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// UpdateMemberRole sets the role of an existing member
	UpdateMemberRole(organizationID, userID uint64, role models.OrganizationRole) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, userID uint64) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithPersonalOrganization creates a user, their personal organization,
	// and corresponding membership within a single transaction.
	CreateWithPersonalOrganization(user *models.User, org *models.Organization, member *models.OrganizationMember) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}
