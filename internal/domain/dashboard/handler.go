package dashboard

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/introspect-health/introspect/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("supervisor"))
	g.GET("/dashboard", h.Overview)
	g.GET("/dashboard/districts", h.Districts)
	g.GET("/dashboard/clinics", h.Clinics)
}

func (h *Handler) Overview(c echo.Context) error {
	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a non-negative integer")
		}
		days = v
	}
	ov, err := h.svc.Overview(c.Request().Context(), days, c.QueryParam("district"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ov)
}

func (h *Handler) Districts(c echo.Context) error {
	stats, err := h.svc.DistrictBreakdown(c.Request().Context(), c.QueryParam("district"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if stats == nil {
		stats = []DistrictStats{}
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Clinics(c echo.Context) error {
	stats, err := h.svc.ClinicBreakdown(c.Request().Context(), c.QueryParam("district"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if stats == nil {
		stats = []ClinicStats{}
	}
	return c.JSON(http.StatusOK, stats)
}
