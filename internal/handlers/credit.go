package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/classifieds-api/internal/dto"
	apierrors "github.com/yukikurage/classifieds-api/internal/errors"
	"github.com/yukikurage/classifieds-api/internal/logging"
	"github.com/yukikurage/classifieds-api/internal/middleware"
	"github.com/yukikurage/classifieds-api/internal/services"
)

// CreditHandler serves credit balances
type CreditHandler struct {
	creditService *services.CreditService
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(creditService *services.CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// GetCredits returns the user's balance and the balance of each of their organizations
func (h *CreditHandler) GetCredits(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	balances, err := h.creditService.Balances(userID)
	if err != nil {
		logging.Error("failed to load credit balances", err, requestFields(c))
		apierrors.InternalError(c, "Failed to load credits")
		return
	}

	response := dto.CreditsResponse{
		User:          toCreditBalanceDTO(balances.User),
		Organizations: make([]dto.CreditBalanceDTO, len(balances.Organizations)),
	}
	for i, b := range balances.Organizations {
		response.Organizations[i] = toCreditBalanceDTO(b)
	}

	c.JSON(http.StatusOK, response)
}

func toCreditBalanceDTO(b services.CreditBalance) dto.CreditBalanceDTO {
	return dto.CreditBalanceDTO{
		OrganizationID:   b.OrganizationID,
		OrganizationName: b.OrganizationName,
		Unspent:          b.Unspent,
		Spent:            b.Spent,
	}
}
