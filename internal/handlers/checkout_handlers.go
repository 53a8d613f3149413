package handlers

import (
	"log"
	"net/http"

	"iconforge/internal/common"
	"iconforge/internal/services"

	"github.com/labstack/echo/v4"
)

// CheckoutHandlers handles HTTP requests for credit purchases
type CheckoutHandlers struct {
	checkoutService services.CheckoutService
}

// NewCheckoutHandlers creates a new checkout handlers instance
func NewCheckoutHandlers(checkoutService services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkoutService: checkoutService}
}

// CreateCheckout handles POST /checkout
func (h *CheckoutHandlers) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	url, err := h.checkoutService.CreateCheckout(ctx, userID)
	if err != nil {
		log.Printf("checkout session creation failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Could not create checkout session")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
