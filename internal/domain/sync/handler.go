package sync

import (
	"net/http"

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
	g := api.Group("", auth.RequireRole("health_worker", "supervisor"))
	g.POST("/sync/all", h.SyncAll)
	g.POST("/sync/retry", h.Retry)
	g.GET("/sync/status", h.Status)
}

func (h *Handler) SyncAll(c echo.Context) error {
	stats, err := h.svc.SyncAllPending(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Retry(c echo.Context) error {
	stats, err := h.svc.RetryFailed(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Status(c echo.Context) error {
	st, err := h.svc.SyncStatus(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}
