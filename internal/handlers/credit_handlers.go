package handlers

import (
	"net/http"

	"iconforge/internal/common"
	"iconforge/internal/services"

	"github.com/labstack/echo/v4"
)

// CreditHandlers handles HTTP requests for the credit ledger
type CreditHandlers struct {
	creditService services.CreditService
}

// NewCreditHandlers creates a new credit handlers instance
func NewCreditHandlers(creditService services.CreditService) *CreditHandlers {
	return &CreditHandlers{creditService: creditService}
}

// GetCredits handles GET /credits
func (h *CreditHandlers) GetCredits(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	account, err := h.creditService.Account(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to load credit balance")
	}
	return c.JSON(http.StatusOK, account)
}
