package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/repository"
	"github.com/salonhub/salon-booking-platform/internal/service"
)

// AdminHandler groups the back-office surface: the approval queue and
// decisions, platform settings, and the agent performance ledger.
type AdminHandler struct {
	Approvals *service.ApprovalService
	Ledger    *service.LedgerService
	Payments  *service.PaymentService
	Settings  *repository.SettingsRepo
}

func NewAdminHandler(approvals *service.ApprovalService, ledger *service.LedgerService,
	payments *service.PaymentService, settings *repository.SettingsRepo) *AdminHandler {
	return &AdminHandler{Approvals: approvals, Ledger: ledger, Payments: payments, Settings: settings}
}

// settingKeys is the set of config keys admins may change.  Unknown
// keys are rejected so a typo cannot plant a dead row.
var settingKeys = map[string]bool{
	"convenience_fee_percent":       true,
	"rm_score_per_approval":         true,
	"booking_hold_minutes":          true,
	"slot_granularity_minutes":      true,
	"booking_lookahead_days":        true,
	"cancellation_cutoff_hours":     true,
	"activation_token_ttl_days":     true,
	"vendor_registration_fee_cents": true,
}

type rejectReq struct {
	Reason string `json:"reason"`
}

type updateSettingsReq map[string]int64

// Queue lists vendor requests awaiting a decision, oldest first.
func (h *AdminHandler) Queue(c echo.Context) error {
	reqs, err := h.Approvals.Queue(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]vendorResp, 0, len(reqs))
	for i := range reqs {
		out = append(out, toVendorResp(&reqs[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Approve approves a pending vendor request.  The response carries the
// activation token for delivery to the owner.
func (h *AdminHandler) Approve(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Approvals.Approve(c.Request().Context(), uid, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"request": toVendorResp(res.Request),
		"salon": salonResp{
			ID: res.Salon.ID, Name: res.Salon.Name,
			Address: res.Salon.Address, Phone: res.Salon.Phone,
		},
		"activation_token": res.ActivationToken,
	})
}

// Reject rejects a pending vendor request with a reason.
func (h *AdminHandler) Reject(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	out, err := h.Approvals.Reject(c.Request().Context(), uid, id, req.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toVendorResp(out))
}

// GetSettings returns every config row.
func (h *AdminHandler) GetSettings(c echo.Context) error {
	values, err := h.Settings.All(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, values)
}

// UpdateSettings upserts the posted key/value pairs.  Values take
// effect on the next settings snapshot; in-flight operations keep the
// values they started with.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var req updateSettingsReq
	if err := c.Bind(&req); err != nil || len(req) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one setting required"})
	}
	for key, val := range req {
		if !settingKeys[key] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown setting: " + key})
		}
		if val < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "setting " + key + " must not be negative"})
		}
	}
	ctx := c.Request().Context()
	for key, val := range req {
		if err := h.Settings.Set(ctx, key, strconv.FormatInt(val, 10)); err != nil {
			return writeServiceError(c, err)
		}
	}
	values, err := h.Settings.All(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, values)
}

type profileResp struct {
	AgentID        uint64    `json:"agent_id"`
	Score          int64     `json:"score"`
	SubmittedCount uint32    `json:"submitted_count"`
	ApprovedCount  uint32    `json:"approved_count"`
	RejectedCount  uint32    `json:"rejected_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type scoreEntryResp struct {
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func toProfileResp(p *model.AgentProfile) profileResp {
	return profileResp{
		AgentID:        p.AgentID,
		Score:          p.Score,
		SubmittedCount: p.SubmittedCount,
		ApprovedCount:  p.ApprovedCount,
		RejectedCount:  p.RejectedCount,
		UpdatedAt:      p.UpdatedAt,
	}
}

// AgentProfile returns one agent's running score and counters.
func (h *AdminHandler) AgentProfile(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	p, err := h.Ledger.Profile(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toProfileResp(p))
}

// AgentHistory returns an agent's score entries, newest first.
func (h *AdminHandler) AgentHistory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	entries, err := h.Ledger.History(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]scoreEntryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, scoreEntryResp{Delta: e.Delta, Reason: e.Reason, CreatedAt: e.CreatedAt})
	}
	return c.JSON(http.StatusOK, out)
}

// VerifyAgent recomputes an agent's score from history.  A divergent
// ledger returns 500 with both numbers so operators can investigate.
func (h *AdminHandler) VerifyAgent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	report, err := h.Ledger.Verify(c.Request().Context(), id)
	var integrity *service.IntegrityError
	if errors.As(err, &integrity) && report != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":  integrity.Msg,
			"report": report,
		})
	}
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// MyProfile returns the calling agent's own profile.
func (h *AdminHandler) MyProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	p, err := h.Ledger.Profile(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toProfileResp(p))
}

// MyHistory returns the calling agent's own score entries.
func (h *AdminHandler) MyHistory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.Ledger.History(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]scoreEntryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, scoreEntryResp{Delta: e.Delta, Reason: e.Reason, CreatedAt: e.CreatedAt})
	}
	return c.JSON(http.StatusOK, out)
}

// CheckPayments verifies that an entity carries at most one VERIFIED
// payment for the given purpose.  A duplicate is a 500: it means a
// conditional transition was bypassed and needs manual reconciliation.
func (h *AdminHandler) CheckPayments(c echo.Context) error {
	purpose := c.QueryParam("purpose")
	if purpose != model.PurposeBooking && purpose != model.PurposeVendorRegistration {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "purpose must be BOOKING or VENDOR_REGISTRATION"})
	}
	entityID, err := strconv.ParseUint(c.QueryParam("entity_id"), 10, 64)
	if err != nil || entityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "entity_id required"})
	}
	if err := h.Payments.CheckEntity(c.Request().Context(), purpose, entityID); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"purpose": purpose, "entity_id": entityID, "consistent": true})
}

// Leaderboard returns the top agents by running score.
func (h *AdminHandler) Leaderboard(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	profiles, err := h.Ledger.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]profileResp, 0, len(profiles))
	for i := range profiles {
		out = append(out, toProfileResp(&profiles[i]))
	}
	return c.JSON(http.StatusOK, out)
}
