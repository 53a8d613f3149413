package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"iconforge/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
)

// WebhookHandlers handles payment-provider callbacks. This is the only
// trusted path that credits the ledger.
type WebhookHandlers struct {
	checkoutService services.CheckoutService
	creditService   services.CreditService
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(checkoutService services.CheckoutService, creditService services.CreditService) *WebhookHandlers {
	return &WebhookHandlers{
		checkoutService: checkoutService,
		creditService:   creditService,
	}
}

// StripeWebhook handles POST /webhooks/stripe
func (h *WebhookHandlers) StripeWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing Stripe signature")
	}

	event, err := h.checkoutService.ParseWebhookEvent(body, signature)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	if err := h.processStripeEvent(c, event); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "success",
		"event":  string(event.Type),
	})
}

func (h *WebhookHandlers) processStripeEvent(c echo.Context, event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutCompleted(c, event)
	default:
		// Unknown events are acknowledged, not errors.
		return nil
	}
}

func (h *WebhookHandlers) handleCheckoutCompleted(c echo.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	userID := session.Metadata["userId"]
	if userID == "" {
		log.Printf("checkout.session.completed without userId metadata, session %s", session.ID)
		return nil
	}

	credits, err := strconv.Atoi(session.Metadata["credits"])
	if err != nil || credits <= 0 {
		log.Printf("checkout.session.completed with bad credits metadata %q, session %s", session.Metadata["credits"], session.ID)
		return nil
	}

	if err := h.creditService.Credit(c.Request().Context(), userID, credits); err != nil {
		return err
	}

	log.Printf("credited %d credits to user %s from session %s", credits, userID, session.ID)
	return nil
}
