package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/narumikatou1-bot/everytime-checkout/internal/metrics"
	"github.com/narumikatou1-bot/everytime-checkout/internal/service"
	"github.com/narumikatou1-bot/everytime-checkout/pkg/payment"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, orderID, amount int64) (*payment.Session, error)
	SessionStatus(ctx context.Context, sessionID string) (*payment.Session, error)
}

type CheckoutHandler struct {
	svc CheckoutService
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type createSessionRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
	Amount  int64 `json:"amount" binding:"required"`
}

// Create issues a hosted checkout session for an order. Safe to retry:
// the same order always yields the same session.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.CheckoutSessionsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.svc.CreateSession(c.Request.Context(), req.OrderID, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			metrics.CheckoutSessionsTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logrus.WithError(err).WithField("order_id", req.OrderID).Error("checkout session creation failed")
		metrics.CheckoutSessionsTotal.WithLabelValues("failed").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
		return
	}

	metrics.CheckoutSessionsTotal.WithLabelValues("created").Inc()
	metrics.CheckoutAmount.WithLabelValues(sess.Currency).Observe(float64(req.Amount))
	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
		"url":        sess.URL,
		"order_id":   req.OrderID,
	})
}

// Status reads a session back from the provider, for support tooling and
// the success page.
func (h *CheckoutHandler) Status(c *gin.Context) {
	sess, err := h.svc.SessionStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).Error("checkout session lookup failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
		}
		return
	}

	orderID, _ := strconv.ParseInt(sess.OrderRef, 10, 64)
	c.JSON(http.StatusOK, gin.H{
		"session_id":     sess.ID,
		"order_id":       orderID,
		"amount":         sess.Amount,
		"currency":       sess.Currency,
		"status":         sess.Status,
		"payment_status": sess.PaymentStatus,
	})
}
