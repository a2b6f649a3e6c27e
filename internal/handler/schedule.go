package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/repository"
)

// ScheduleHandler exposes the owner-side catalog and schedule
// management: services, staff, and staff working-hours windows.
// Ownership of the touched salon is enforced by the repositories.
type ScheduleHandler struct {
	Salons   *repository.SalonRepo
	Schedule *repository.ScheduleRepo
}

func NewScheduleHandler(salons *repository.SalonRepo, schedule *repository.ScheduleRepo) *ScheduleHandler {
	return &ScheduleHandler{Salons: salons, Schedule: schedule}
}

type createServiceReq struct {
	Name            string `json:"name"`
	DurationMinutes uint32 `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

type createStaffReq struct {
	FullName string `json:"full_name"`
}

type createWindowReq struct {
	Weekday     int    `json:"weekday"` // 0 = Sunday
	StartMinute uint16 `json:"start_minute"`
	EndMinute   uint16 `json:"end_minute"`
}

// CreateService adds a bookable service to the owner's salon.
func (h *ScheduleHandler) CreateService(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	salonID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req createServiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.DurationMinutes == 0 || req.PriceCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, duration_minutes and price_cents required"})
	}
	svc := &model.Service{
		SalonID:         salonID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
	}
	if err := h.Salons.CreateService(c.Request().Context(), uid, svc); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, serviceResp{
		ID: svc.ID, SalonID: svc.SalonID, Name: svc.Name,
		DurationMinutes: svc.DurationMinutes, PriceCents: svc.PriceCents,
	})
}

// CreateStaff adds a staff member to the owner's salon.
func (h *ScheduleHandler) CreateStaff(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	salonID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req createStaffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name required"})
	}
	st := &model.Staff{SalonID: salonID, FullName: req.FullName}
	if err := h.Salons.CreateStaff(c.Request().Context(), uid, st); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, staffResp{ID: st.ID, SalonID: st.SalonID, FullName: st.FullName})
}

// CreateWindow adds a working-hours window to a staff member's week.
// Overlapping windows for the same weekday are rejected.
func (h *ScheduleHandler) CreateWindow(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staffID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req createWindowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "weekday must be 0..6"})
	}
	if req.StartMinute >= req.EndMinute || req.EndMinute > 24*60 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "window minutes out of range"})
	}
	w := &model.AvailabilityWindow{
		StaffID:     staffID,
		Weekday:     time.Weekday(req.Weekday),
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
	}
	if err := h.Schedule.Create(c.Request().Context(), uid, w); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, windowResp{
		ID: w.ID, StaffID: w.StaffID, Weekday: int(w.Weekday),
		StartMinute: w.StartMinute, EndMinute: w.EndMinute,
	})
}

// DeleteWindow removes a working-hours window.
func (h *ScheduleHandler) DeleteWindow(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	windowID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Schedule.Delete(c.Request().Context(), uid, windowID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListWindows returns a staff member's windows for the owning user.
func (h *ScheduleHandler) ListWindows(c echo.Context) error {
	staffID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	windows, err := h.Schedule.ListByStaff(c.Request().Context(), staffID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, windowsToResp(windows))
}
