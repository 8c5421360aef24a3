package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/classifieds-api/internal/authz"
	"github.com/yukikurage/classifieds-api/internal/dto"
	apierrors "github.com/yukikurage/classifieds-api/internal/errors"
	"github.com/yukikurage/classifieds-api/internal/logging"
	"github.com/yukikurage/classifieds-api/internal/middleware"
	"github.com/yukikurage/classifieds-api/internal/services"
	"github.com/yukikurage/classifieds-api/internal/utils"
)

// ListingHandler serves the classified listing endpoints
type ListingHandler struct {
	listingService *services.ListingService
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
	}
}

// CreateListingRequest is the body of POST /listings
type CreateListingRequest struct {
	CategoryID        uint64     `json:"category_id" binding:"required"`
	Title             string     `json:"title"`
	BodyMarkdown      string     `json:"body_markdown"`
	TagList           string     `json:"tag_list"`
	Location          string     `json:"location"`
	ContactViaConnect bool       `json:"contact_via_connect"`
	OrganizationID    *uint64    `json:"organization_id"`
	ExpiresAt         *time.Time `json:"expires_at"`
}

// UpdateListingRequest is the body of PUT /listings/:id
type UpdateListingRequest struct {
	Action            string  `json:"action"`
	Title             *string `json:"title"`
	BodyMarkdown      *string `json:"body_markdown"`
	TagList           *string `json:"tag_list"`
	Location          *string `json:"location"`
	ContactViaConnect *bool   `json:"contact_via_connect"`
}

// ListListings returns published listings, newest bump first
func (h *ListingHandler) ListListings(c *gin.Context) {
	h.list(c, "")
}

// ListListingsByCategory returns published listings of one category.
// The route shares the :id wildcard with the other /listings/:id routes.
func (h *ListingHandler) ListListingsByCategory(c *gin.Context) {
	h.list(c, c.Param("id"))
}

func (h *ListingHandler) list(c *gin.Context, categorySlug string) {
	pagination := utils.GetPaginationParams(c)

	page, err := h.listingService.List(services.ListListingsInput{
		CategorySlug: categorySlug,
		TagName:      c.Query("tag"),
		Pagination:   pagination,
	})
	if err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		respondListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListingListResponse(page.Listings, page.Category, pagination, page.Total))
}

// ListOwnListings returns the caller's listings including unpublished ones.
// ?organization_id= switches to the listings of one of the caller's organizations.
func (h *ListingHandler) ListOwnListings(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListOwnListingsInput{UserID: userID, Pagination: utils.GetPaginationParams(c)}
	if raw := c.Query("organization_id"); raw != "" {
		orgID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			return
		}
		input.OrganizationID = &orgID
	}

	page, err := h.listingService.ListOwn(input)
	if err != nil {
		respondListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListingListResponse(page.Listings, nil, input.Pagination, page.Total))
}

// ListCategories returns every listing category with its cost
func (h *ListingHandler) ListCategories(c *gin.Context) {
	categories, err := h.listingService.Categories()
	if err != nil {
		respondListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": dto.ToCategoryDTOs(categories),
	})
}

// EditListing returns the edit form data of a listing
func (h *ListingHandler) EditListing(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	listingID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid listing ID")
		return
	}

	form, err := h.listingService.EditForm(userID, listingID)
	if err != nil {
		respondListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListingEditFormDTO(*form.Listing, form.Categories, form.Editable, form.EditableUntil, form.Organizations))
}

// CreateListing creates a listing and charges its category cost
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), services.CreateListingInput{
		UserID:            userID,
		OrganizationID:    req.OrganizationID,
		CategoryID:        req.CategoryID,
		Title:             req.Title,
		BodyMarkdown:      req.BodyMarkdown,
		TagList:           req.TagList,
		Location:          req.Location,
		ContactViaConnect: req.ContactViaConnect,
		ExpiresAt:         req.ExpiresAt,
	})
	if err != nil {
		respondListingError(c, err)
		return
	}

	logging.Info("listing created", map[string]interface{}{
		"listing_id":      listing.ID,
		"user_id":         userID,
		"organization_id": listing.OrganizationID,
		"category":        listing.Category.Slug,
	})

	c.JSON(http.StatusCreated, dto.ToListingDTO(*listing))
}

// UpdateListing bumps, publishes, unpublishes or edits a listing
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	listingID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid listing ID")
		return
	}

	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	listing, err := h.listingService.Update(c.Request.Context(), services.UpdateListingInput{
		UserID:            userID,
		ListingID:         listingID,
		Action:            req.Action,
		Title:             req.Title,
		BodyMarkdown:      req.BodyMarkdown,
		TagList:           req.TagList,
		Location:          req.Location,
		ContactViaConnect: req.ContactViaConnect,
	})
	if err != nil {
		respondListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListingDTO(*listing))
}

// DeleteListing removes a listing
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	listingID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid listing ID")
		return
	}

	if err := h.listingService.Delete(userID, listingID); err != nil {
		respondListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing deleted successfully",
	})
}

// SuggestTags proposes tags for a listing draft
func (h *ListingHandler) SuggestTags(c *gin.Context) {
	type SuggestTagsRequest struct {
		Title        string `json:"title"`
		BodyMarkdown string `json:"body_markdown"`
	}

	var req SuggestTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tags, err := h.listingService.SuggestTags(c.Request.Context(), req.Title, req.BodyMarkdown)
	if err != nil {
		respondListingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags": tags,
	})
}

func respondListingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrNotAuthorized):
		apierrors.NotAuthorized(c, err.Error())
	case errors.Is(err, services.ErrRateLimited):
		apierrors.TooManyRequests(c, "You have created too many listings recently, try again later")
	case errors.Is(err, services.ErrInsufficientCredits):
		apierrors.PaymentRequired(c, "Not enough credits for this listing", gin.H{"reason": err.Error()})
	case errors.Is(err, services.ErrListingNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrBodyRequired),
		errors.Is(err, services.ErrTooManyTags),
		errors.Is(err, services.ErrInvalidTag),
		errors.Is(err, services.ErrInvalidListingAction):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		logging.Error("listing request failed", err, requestFields(c))
		apierrors.InternalError(c, "Internal server error")
	}
}
