package imagestore

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/introspect-health/introspect/internal/platform/auth"
)

// RegisterRoutes mounts the diagnostic storage endpoint. The stats walk
// the whole tree, so this stays an admin-only operations tool.
func (s *Store) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin"))
	g.GET("/storage/stats", s.handleStats)
}

func (s *Store) handleStats(c echo.Context) error {
	stats, err := s.Stats()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
