package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/narumikatou1-bot/everytime-checkout/internal/metrics"
	"github.com/narumikatou1-bot/everytime-checkout/internal/middleware"
	"github.com/narumikatou1-bot/everytime-checkout/internal/service"
)

// Stripe events stay well under this; anything larger is not ours.
const maxWebhookBody = 64 << 10

type EventReconciler interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) (service.Outcome, error)
}

type StripeWebhookHandler struct {
	reconciler EventReconciler
}

func NewStripeWebhookHandler(reconciler EventReconciler) *StripeWebhookHandler {
	return &StripeWebhookHandler{reconciler: reconciler}
}

// Handle verifies and applies one webhook delivery. The body must reach
// verification byte for byte as received, so it is read raw and never
// bound. 400 tells Stripe to drop the delivery, 502 to send it again.
func (h *StripeWebhookHandler) Handle(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	outcome, err := h.reconciler.HandleEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrSignatureInvalid) {
			logrus.WithFields(logrus.Fields{
				"request_id": middleware.GetRequestID(c),
				"client_ip":  c.ClientIP(),
			}).Warn("webhook delivery rejected: bad signature")
			metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		logrus.WithError(err).Error("webhook reconciliation failed")
		metrics.WebhookEventsTotal.WithLabelValues("failed").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "order backend unavailable"})
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues("ok").Inc()
	metrics.ReconcileOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}
