package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/narumikatou1-bot/everytime-checkout/config"
	"github.com/narumikatou1-bot/everytime-checkout/internal/handler"
	"github.com/narumikatou1-bot/everytime-checkout/internal/metrics"
	"github.com/narumikatou1-bot/everytime-checkout/internal/middleware"
	"github.com/narumikatou1-bot/everytime-checkout/internal/service"
	"github.com/narumikatou1-bot/everytime-checkout/pkg/orders"
	"github.com/narumikatou1-bot/everytime-checkout/pkg/payment"
)

func Setup(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())

	metrics.RegisterMetrics()

	provider := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Tolerance:     cfg.Stripe.SignatureTolerance,
	})
	ordersClient := orders.NewRESTClient(cfg.Orders.BaseURL, cfg.Orders.Key, cfg.Orders.Secret, cfg.Orders.Timeout)

	checkoutSvc := service.NewCheckoutService(provider, service.CheckoutConfig{
		PublicBaseURL: cfg.Checkout.PublicBaseURL,
		Currency:      cfg.Checkout.Currency,
		SessionExpiry: cfg.Checkout.SessionExpiry,
	})
	reconcileSvc := service.NewReconcileService(provider, ordersClient)

	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	webhookHandler := handler.NewStripeWebhookHandler(reconcileSvc)

	apiKeyMw := middleware.APIKeyRequired(cfg.Checkout.APIKey)
	rateMw := middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window))

	api := r.Group("/api/v1")
	{
		checkout := api.Group("/checkout")
		checkout.Use(rateMw, apiKeyMw)
		{
			checkout.POST("/sessions", checkoutHandler.Create)
			checkout.GET("/sessions/:id", checkoutHandler.Status)
		}

		// Stripe authenticates with its signature, not the API key, and its
		// retries must not be rate limited.
		api.POST("/webhooks/stripe", webhookHandler.Handle)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
