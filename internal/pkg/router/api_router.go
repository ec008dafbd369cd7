package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/bonesy512/landhub/app/controllers"
	"github.com/bonesy512/landhub/internal/pkg/middleware"
)

type ApiRouter struct {
	payments *controllers.PaymentController
	distance *controllers.DistanceController
}

func NewApiRouter(payments *controllers.PaymentController, distance *controllers.DistanceController) *ApiRouter {
	return &ApiRouter{payments: payments, distance: distance}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1", middleware.CallerIdentity())
	v1.Post("/payments/create-checkout", h.payments.HandleCreateCheckout)
	v1.Post("/payments/webhook", h.payments.HandleWebhook)
	v1.Get("/payments/health", h.payments.HandleBillingHealth)
	v1.Post("/distance-to-city", h.distance.HandleDistanceToCity)
}
