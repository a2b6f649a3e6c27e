package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/service"
)

// PaymentHandler exposes payment verification.  The same settlement
// runs for the client callback (authenticated) and the processor
// webhook (signature-authenticated); whichever lands second is a
// no-op.
type PaymentHandler struct {
	Svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Svc: svc}
}

type verifyReq struct {
	OrderRef  string `json:"order_ref"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type paymentResp struct {
	OrderRef        string     `json:"order_ref"`
	Purpose         string     `json:"purpose"`
	EntityID        uint64     `json:"entity_id"`
	AmountCents     int64      `json:"amount_cents"`
	Status          string     `json:"status"`
	ExternalOrderID *string    `json:"external_order_id,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
}

func toPaymentResp(rec *model.PaymentRecord) paymentResp {
	return paymentResp{
		OrderRef:        rec.OrderRef,
		Purpose:         rec.Purpose,
		EntityID:        rec.EntityID,
		AmountCents:     rec.AmountCents,
		Status:          rec.Status,
		ExternalOrderID: rec.ExternalOrderID,
		VerifiedAt:      rec.VerifiedAt,
	}
}

// Verify handles the client-side callback after checkout.
func (h *PaymentHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.Verify(c.Request().Context(), req.OrderRef, req.PaymentID, req.Signature)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResp(rec))
}

// Webhook handles the processor's asynchronous notification.  The
// body signature is the authentication; no session is involved.
// Only rejected input gets a 4xx: internal faults are logged and
// acknowledged with a 2xx so the processor does not retry into an
// outage, and the client callback or the sweep settles the order.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if _, err := h.Svc.Verify(c.Request().Context(), req.OrderRef, req.PaymentID, req.Signature); err != nil {
		var validation *service.ValidationError
		if errors.As(err, &validation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": validation.Msg})
		}
		c.Logger().Errorf("webhook settlement for order %s: %v", req.OrderRef, err)
	}
	return c.NoContent(http.StatusOK)
}

// Status returns the current state of a payment order, used after an
// ambiguous order creation.
func (h *PaymentHandler) Status(c echo.Context) error {
	orderRef := c.Param("order_ref")
	if orderRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_ref required"})
	}
	rec, err := h.Svc.Status(c.Request().Context(), orderRef)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResp(rec))
}
