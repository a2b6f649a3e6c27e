package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/service"
)

// VendorHandler exposes the field-agent side of vendor onboarding
// plus the public activation endpoint.
type VendorHandler struct {
	Svc *service.ApprovalService
}

func NewVendorHandler(svc *service.ApprovalService) *VendorHandler {
	return &VendorHandler{Svc: svc}
}

type submitVendorReq struct {
	OwnerEmail      string  `json:"owner_email"`
	BusinessName    string  `json:"business_name"`
	BusinessAddress *string `json:"business_address"`
	BusinessPhone   *string `json:"business_phone"`
}

type activateReq struct {
	Token string `json:"token"`
}

type vendorResp struct {
	ID              uint64    `json:"id"`
	AgentID         uint64    `json:"agent_id"`
	OwnerEmail      string    `json:"owner_email"`
	BusinessName    string    `json:"business_name"`
	BusinessAddress *string   `json:"business_address,omitempty"`
	BusinessPhone   *string   `json:"business_phone,omitempty"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	SalonID         *uint64   `json:"salon_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type transitionResp struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uint64    `json:"actor_id"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toVendorResp(r *model.VendorRequest) vendorResp {
	return vendorResp{
		ID:              r.ID,
		AgentID:         r.AgentID,
		OwnerEmail:      r.OwnerEmail,
		BusinessName:    r.BusinessName,
		BusinessAddress: r.BusinessAddress,
		BusinessPhone:   r.BusinessPhone,
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
		SalonID:         r.SalonID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func transitionsToResp(trail []model.VendorTransition) []transitionResp {
	out := make([]transitionResp, 0, len(trail))
	for _, t := range trail {
		out = append(out, transitionResp{
			FromStatus: t.FromStatus,
			ToStatus:   t.ToStatus,
			ActorID:    t.ActorID,
			Reason:     t.Reason,
			CreatedAt:  t.CreatedAt,
		})
	}
	return out
}

// Submit files a new vendor request on behalf of a salon owner.
func (h *VendorHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req submitVendorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	out, err := h.Svc.Submit(c.Request().Context(), uid, service.SubmitInput{
		OwnerEmail:      req.OwnerEmail,
		BusinessName:    req.BusinessName,
		BusinessAddress: req.BusinessAddress,
		BusinessPhone:   req.BusinessPhone,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toVendorResp(out))
}

// ListMine returns the caller's vendor requests, newest first.
func (h *VendorHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqs, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]vendorResp, 0, len(reqs))
	for i := range reqs {
		out = append(out, toVendorResp(&reqs[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a request with its full audit trail.
func (h *VendorHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req, trail, err := h.Svc.Get(c.Request().Context(), uid, getRole(c), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"request":     toVendorResp(req),
		"transitions": transitionsToResp(trail),
	})
}

// CreatePaymentOrder opens the registration-fee payment order for an
// approved request.  Re-requesting returns the existing open order.
func (h *VendorHandler) CreatePaymentOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	rec, err := h.Svc.CreateRegistrationOrder(c.Request().Context(), id)
	var external *service.ExternalError
	if errors.As(err, &external) && external.Ambiguous && rec != nil {
		return c.JSON(http.StatusAccepted, echo.Map{
			"order_ref": rec.OrderRef,
			"message":   "payment order outcome unknown; poll the order status",
		})
	}
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toPaymentResp(rec))
}

// Activate consumes an activation token and brings the salon live.
// Public endpoint: the token is the credential.
func (h *VendorHandler) Activate(c echo.Context) error {
	var req activateReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	out, err := h.Svc.Activate(c.Request().Context(), req.Token)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toVendorResp(out))
}
