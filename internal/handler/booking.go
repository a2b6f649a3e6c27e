package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/service"
)

// BookingHandler exposes the customer booking flow: slot discovery,
// reservation, cancellation and listing.
type BookingHandler struct {
	Svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Svc: svc}
}

type reserveReq struct {
	StaffID   uint64 `json:"staff_id"`
	ServiceID uint64 `json:"service_id"`
	StartsAt  string `json:"starts_at"` // RFC 3339
}

type bookingResp struct {
	ID                  uint64     `json:"id"`
	SalonID             uint64     `json:"salon_id"`
	StaffID             uint64     `json:"staff_id"`
	ServiceID           uint64     `json:"service_id"`
	StartsAt            time.Time  `json:"starts_at"`
	EndsAt              time.Time  `json:"ends_at"`
	Status              string     `json:"status"`
	ServiceAmountCents  int64      `json:"service_amount_cents"`
	ConvenienceFeeCents int64      `json:"convenience_fee_cents"`
	TotalAmountCents    int64      `json:"total_amount_cents"`
	PaymentOrderRef     *string    `json:"payment_order_ref,omitempty"`
	HoldExpiresAt       *time.Time `json:"hold_expires_at,omitempty"`
	RefundDue           bool       `json:"refund_due"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:                  b.ID,
		SalonID:             b.SalonID,
		StaffID:             b.StaffID,
		ServiceID:           b.ServiceID,
		StartsAt:            b.StartsAt,
		EndsAt:              b.EndsAt,
		Status:              b.Status,
		ServiceAmountCents:  b.ServiceAmountCents,
		ConvenienceFeeCents: b.ConvenienceFeeCents,
		TotalAmountCents:    b.TotalAmountCents,
		PaymentOrderRef:     b.PaymentOrderRef,
		HoldExpiresAt:       b.HoldExpiresAt,
		RefundDue:           b.RefundDue,
	}
}

// GetSlots returns bookable start times for ?service_id= and ?date=
// on the staff member in the path.
func (h *BookingHandler) GetSlots(c echo.Context) error {
	staffID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	serviceID, err := strconv.ParseUint(c.QueryParam("service_id"), 10, 64)
	if err != nil || serviceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id required"})
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	slots, err := h.Svc.Slots(c.Request().Context(), staffID, serviceID, date)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(time.RFC3339))
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": out})
}

// Reserve places a hold on a slot and opens the payment order.  An
// ambiguous processor outcome returns 202 with the held booking so
// the client can poll the order status; the hold expiry sweep cleans
// up if payment never materializes.
func (h *BookingHandler) Reserve(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	starts, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC 3339"})
	}

	b, rec, err := h.Svc.Reserve(c.Request().Context(), uid, service.ReserveInput{
		StaffID:   req.StaffID,
		ServiceID: req.ServiceID,
		StartsAt:  starts,
	})
	var external *service.ExternalError
	if errors.As(err, &external) && external.Ambiguous && b != nil {
		return c.JSON(http.StatusAccepted, echo.Map{
			"booking":   toBookingResp(b),
			"order_ref": rec.OrderRef,
			"message":   "payment order outcome unknown; poll the order status",
		})
	}
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking":           toBookingResp(b),
		"order_ref":         rec.OrderRef,
		"external_order_id": rec.ExternalOrderID,
		"amount_cents":      rec.AmountCents,
	})
}

// Complete marks a finished appointment completed.  Owner-side
// endpoint; the service checks salon ownership and the end time.
func (h *BookingHandler) Complete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Svc.Complete(c.Request().Context(), uid, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// List returns the caller's bookings.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Svc.List(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one of the caller's bookings.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Cancel cancels one of the caller's bookings.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Svc.Cancel(c.Request().Context(), uid, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}
