package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/bonesy512/landhub/internal/pkg/billing"
	"github.com/bonesy512/landhub/internal/pkg/config"
	"github.com/bonesy512/landhub/internal/pkg/middleware"
)

var validate = validator.New()

type CreateCheckoutRequest struct {
	PriceID    string `json:"price_id" validate:"required"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

type CreateCheckoutResponse struct {
	SessionID string `json:"session_id"`
}

// PaymentController serves checkout initiation and the provider webhook.
type PaymentController struct {
	cfg        *config.Config
	checkout   *billing.CheckoutService
	dispatcher *billing.Dispatcher
}

func NewPaymentController(cfg *config.Config, store billing.Store, provider billing.Provider, catalog *billing.Catalog) *PaymentController {
	return &PaymentController{
		cfg:        cfg,
		checkout:   billing.NewCheckoutService(store, provider, catalog),
		dispatcher: billing.NewDispatcher(store, provider, catalog),
	}
}

// HandleCreateCheckout opens a provider checkout session for the caller.
func (pc *PaymentController) HandleCreateCheckout(c *fiber.Ctx) error {
	userID := middleware.CallerID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Caller identity required",
		})
	}

	var req CreateCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	sessionID, err := pc.checkout.CreateCheckout(ctx, userID, req.PriceID, req.SuccessURL, req.CancelURL)
	if err != nil {
		var ce *billing.CheckoutError
		if errors.As(err, &ce) {
			log.Warnf("checkout failed for user %s: %v", userID, err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "checkout_failed",
				"message": ce.Message,
			})
		}
		log.Errorf("checkout failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "Checkout could not be created",
		})
	}

	return c.Status(fiber.StatusOK).JSON(CreateCheckoutResponse{SessionID: sessionID})
}

// HandleWebhook receives provider webhook deliveries. Recognized-but-
// irrelevant events and local business misses are acknowledged with a 2xx
// so the provider does not retry them; only validation failures get a 4xx
// and only infrastructure failures a 5xx.
func (pc *PaymentController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, err := pc.dispatcher.Handle(ctx, rawBody, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  billing.OutcomeError,
				"message": "invalid signature",
			})
		}
		if errors.Is(err, billing.ErrInvalidPayload) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  billing.OutcomeError,
				"message": "invalid payload",
			})
		}
		log.Errorf("webhook processing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  billing.OutcomeError,
			"message": "webhook processing failed",
		})
	}

	return c.Status(fiber.StatusOK).JSON(outcome)
}

// HandleBillingHealth reports the active billing mode and whether the
// billing configuration is complete.
func (pc *PaymentController) HandleBillingHealth(c *fiber.Ctx) error {
	if err := pc.cfg.Validate(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unavailable",
			"message": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
		"mode":   pc.cfg.Mode,
	})
}
