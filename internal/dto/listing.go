package dto

import (
	"time"

	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/utils"
)

// CategoryDTO represents a listing category in API responses
type CategoryDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Cost  int    `json:"cost"`
	Rules string `json:"rules,omitempty"`
}

// ListingDTO represents a classified listing in API responses
type ListingDTO struct {
	ID                    uint64           `json:"id"`
	Title                 string           `json:"title"`
	BodyMarkdown          string           `json:"body_markdown"`
	ProcessedHTML         string           `json:"processed_html"`
	TagList               []string         `json:"tag_list"`
	Location              string           `json:"location,omitempty"`
	ContactViaConnect     bool             `json:"contact_via_connect"`
	Published             bool             `json:"published"`
	BumpedAt              time.Time        `json:"bumped_at"`
	OriginallyPublishedAt *time.Time       `json:"originally_published_at,omitempty"`
	ExpiresAt             *time.Time       `json:"expires_at,omitempty"`
	UserID                uint64           `json:"user_id"`
	OrganizationID        *uint64          `json:"organization_id"`
	CategoryID            uint64           `json:"category_id"`
	Category              *CategoryDTO     `json:"category,omitempty"`
	Author                *UserDTO         `json:"author,omitempty"`
	Organization          *OrganizationDTO `json:"organization,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ListingListResponse represents a page of the listing feed
type ListingListResponse struct {
	Listings   []ListingDTO `json:"listings"`
	Category   *CategoryDTO `json:"category,omitempty"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int64        `json:"total_count"`
	TotalPages int          `json:"total_pages"`
}

// ListingEditFormDTO holds what a client needs to render the listing edit form
type ListingEditFormDTO struct {
	Listing       ListingDTO                `json:"listing"`
	Categories    []CategoryDTO             `json:"categories"`
	Editable      bool                      `json:"editable"`
	EditableUntil time.Time                 `json:"editable_until"`
	Organizations []OrganizationWithRoleDTO `json:"organizations"`
}

// ToCategoryDTO converts a ListingCategory model to CategoryDTO
func ToCategoryDTO(category models.ListingCategory) CategoryDTO {
	return CategoryDTO{
		ID:    category.ID,
		Name:  category.Name,
		Slug:  category.Slug,
		Cost:  category.Cost,
		Rules: category.Rules,
	}
}

// ToCategoryDTOs converts categories to DTOs
func ToCategoryDTOs(categories []models.ListingCategory) []CategoryDTO {
	dtos := make([]CategoryDTO, len(categories))
	for i, category := range categories {
		dtos[i] = ToCategoryDTO(category)
	}
	return dtos
}

// ToListingDTO converts a ClassifiedListing model to ListingDTO
func ToListingDTO(listing models.ClassifiedListing) ListingDTO {
	dto := ListingDTO{
		ID:                    listing.ID,
		Title:                 listing.Title,
		BodyMarkdown:          listing.BodyMarkdown,
		ProcessedHTML:         listing.ProcessedHTML,
		TagList:               listing.TagNames(),
		Location:              listing.Location,
		ContactViaConnect:     listing.ContactViaConnect,
		Published:             listing.Published,
		BumpedAt:              listing.BumpedAt,
		OriginallyPublishedAt: listing.OriginallyPublishedAt,
		ExpiresAt:             listing.ExpiresAt,
		UserID:                listing.UserID,
		OrganizationID:        listing.OrganizationID,
		CategoryID:            listing.CategoryID,
		CreatedAt:             listing.CreatedAt,
		UpdatedAt:             listing.UpdatedAt,
	}

	// Include relations if preloaded
	if listing.Category.ID != 0 {
		category := ToCategoryDTO(listing.Category)
		dto.Category = &category
	}
	if listing.User.ID != 0 {
		author := ToUserDTO(listing.User)
		dto.Author = &author
	}
	if listing.Organization != nil && listing.Organization.ID != 0 {
		org := ToOrganizationDTO(*listing.Organization, false)
		dto.Organization = &org
	}

	return dto
}

// ToListingListResponse converts a page of listings to ListingListResponse
func ToListingListResponse(listings []models.ClassifiedListing, category *models.ListingCategory, pagination utils.PaginationParams, totalCount int64) ListingListResponse {
	items := make([]ListingDTO, len(listings))
	for i, listing := range listings {
		items[i] = ToListingDTO(listing)
	}

	response := ListingListResponse{
		Listings:   items,
		Page:       pagination.Page,
		PageSize:   pagination.Limit,
		TotalCount: totalCount,
		TotalPages: pagination.TotalPages(totalCount),
	}
	if category != nil {
		c := ToCategoryDTO(*category)
		response.Category = &c
	}
	return response
}

// ToListingEditFormDTO converts edit form data to its DTO
func ToListingEditFormDTO(listing models.ClassifiedListing, categories []models.ListingCategory, editable bool, editableUntil time.Time, memberships []models.OrganizationMember) ListingEditFormDTO {
	orgs := make([]OrganizationWithRoleDTO, len(memberships))
	for i, m := range memberships {
		orgs[i] = ToOrganizationWithRoleDTO(m, nil)
	}

	return ListingEditFormDTO{
		Listing:       ToListingDTO(listing),
		Categories:    ToCategoryDTOs(categories),
		Editable:      editable,
		EditableUntil: editableUntil,
		Organizations: orgs,
	}
}
