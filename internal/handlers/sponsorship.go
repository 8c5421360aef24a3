package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/yukikurage/classifieds-api/internal/authz"
	"github.com/yukikurage/classifieds-api/internal/dto"
	apierrors "github.com/yukikurage/classifieds-api/internal/errors"
	"github.com/yukikurage/classifieds-api/internal/logging"
	"github.com/yukikurage/classifieds-api/internal/middleware"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/services"
	"github.com/yukikurage/classifieds-api/internal/views"
)

// SponsorshipHandler serves the sponsorship purchase page and form
type SponsorshipHandler struct {
	sponsorshipService *services.SponsorshipService
	templates          *template.Template
}

// NewSponsorshipHandler creates a new SponsorshipHandler
func NewSponsorshipHandler(sponsorshipService *services.SponsorshipService, templates *template.Template) *SponsorshipHandler {
	return &SponsorshipHandler{
		sponsorshipService: sponsorshipService,
		templates:          templates,
	}
}

// PurchaseSponsorshipRequest is the body of POST /partnerships, sent as JSON or by the HTML form
type PurchaseSponsorshipRequest struct {
	OrganizationID uint64 `json:"organization_id" form:"organization_id" binding:"required"`
	Level          string `json:"level" form:"level" binding:"required"`
	Instructions   string `json:"instructions" form:"instructions"`
	TagName        string `json:"tag_name" form:"tag_name"`
}

// PurchaseView renders the purchase options of a sponsorship level, as HTML or JSON
func (h *SponsorshipHandler) PurchaseView(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	view, err := h.sponsorshipService.PurchaseView(userID, models.SponsorshipLevel(c.Param("level")))
	if err != nil {
		respondSponsorshipError(c, err)
		return
	}

	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, view)
		return
	}

	c.Render(http.StatusOK, render.HTML{
		Template: h.templates,
		Name:     views.PartnershipsPage,
		Data:     view,
	})
}

// Purchase subscribes an organization to a sponsorship
func (h *SponsorshipHandler) Purchase(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req PurchaseSponsorshipRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	sponsorship, err := h.sponsorshipService.Purchase(c.Request.Context(), services.PurchaseSponsorshipInput{
		UserID:         userID,
		OrganizationID: req.OrganizationID,
		Level:          models.SponsorshipLevel(req.Level),
		Instructions:   req.Instructions,
		TagName:        req.TagName,
	})
	if err != nil {
		respondSponsorshipError(c, err)
		return
	}

	logging.Info("sponsorship purchased", map[string]interface{}{
		"sponsorship_id":  sponsorship.ID,
		"organization_id": sponsorship.OrganizationID,
		"level":           sponsorship.Level,
		"user_id":         userID,
	})

	c.JSON(http.StatusCreated, dto.ToSponsorshipDTO(*sponsorship))
}

func respondSponsorshipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrNotAuthorized):
		apierrors.NotAuthorized(c, err.Error())
	case errors.Is(err, services.ErrRateLimited):
		apierrors.TooManyRequests(c, "")
	case errors.Is(err, services.ErrInsufficientCredits):
		apierrors.PaymentRequired(c, "Not enough credits for this sponsorship", gin.H{"reason": err.Error()})
	case errors.Is(err, services.ErrInvalidSponsorshipLevel),
		errors.Is(err, services.ErrTagRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTagNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrMetalSponsorshipConflict),
		errors.Is(err, services.ErrTagAlreadySponsored):
		apierrors.Conflict(c, err.Error())
	default:
		logging.Error("sponsorship request failed", err, requestFields(c))
		apierrors.InternalError(c, "Internal server error")
	}
}
