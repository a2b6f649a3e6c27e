package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/repository"
)

// CatalogHandler serves the public browse endpoints: salon details,
// their services and staff, and staff working hours.  No
// authentication is applied; inactive salons are hidden.
type CatalogHandler struct {
	Salons   *repository.SalonRepo
	Schedule *repository.ScheduleRepo
}

func NewCatalogHandler(salons *repository.SalonRepo, schedule *repository.ScheduleRepo) *CatalogHandler {
	return &CatalogHandler{Salons: salons, Schedule: schedule}
}

type salonResp struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

type serviceResp struct {
	ID              uint64 `json:"id"`
	SalonID         uint64 `json:"salon_id"`
	Name            string `json:"name"`
	DurationMinutes uint32 `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

type staffResp struct {
	ID       uint64 `json:"id"`
	SalonID  uint64 `json:"salon_id"`
	FullName string `json:"full_name"`
}

type windowResp struct {
	ID          uint64 `json:"id"`
	StaffID     uint64 `json:"staff_id"`
	Weekday     int    `json:"weekday"`
	StartMinute uint16 `json:"start_minute"`
	EndMinute   uint16 `json:"end_minute"`
}

// GetSalon returns one active salon.
func (h *CatalogHandler) GetSalon(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	s, err := h.Salons.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	if !s.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, salonResp{ID: s.ID, Name: s.Name, Address: s.Address, Phone: s.Phone})
}

// GetServices lists a salon's bookable services.
func (h *CatalogHandler) GetServices(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	services, err := h.Salons.ListServices(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]serviceResp, 0, len(services))
	for _, s := range services {
		out = append(out, serviceResp{
			ID: s.ID, SalonID: s.SalonID, Name: s.Name,
			DurationMinutes: s.DurationMinutes, PriceCents: s.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetStaff lists a salon's active staff members.
func (h *CatalogHandler) GetStaff(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	staff, err := h.Salons.ListStaff(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]staffResp, 0, len(staff))
	for _, st := range staff {
		out = append(out, staffResp{ID: st.ID, SalonID: st.SalonID, FullName: st.FullName})
	}
	return c.JSON(http.StatusOK, out)
}

// GetStaffWindows returns a staff member's weekly working hours so
// clients can render a schedule before asking for concrete slots.
func (h *CatalogHandler) GetStaffWindows(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	windows, err := h.Schedule.ListByStaff(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, windowsToResp(windows))
}

func windowsToResp(windows []model.AvailabilityWindow) []windowResp {
	out := make([]windowResp, 0, len(windows))
	for _, w := range windows {
		out = append(out, windowResp{
			ID: w.ID, StaffID: w.StaffID, Weekday: int(w.Weekday),
			StartMinute: w.StartMinute, EndMinute: w.EndMinute,
		})
	}
	return out
}
