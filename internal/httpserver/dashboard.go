package httpserver

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anazari96/voice-agent/internal/profile"
)

// registerDashboard exposes the business record the agent answers with.
func registerDashboard(e *echo.Echo, store ProfileStore) {
	e.GET("/api/business-info", func(c echo.Context) error {
		info, err := store.Get(c.Request().Context())
		if err != nil {
			log.Printf("dashboard: load business info: %v", err)
			return c.JSON(http.StatusNotFound, map[string]string{"error": "business info not found"})
		}
		return c.JSON(http.StatusOK, info)
	})

	e.POST("/api/business-info", func(c echo.Context) error {
		var info profile.BusinessInfo
		if err := c.Bind(&info); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid business info payload"})
		}
		if info.BusinessName == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "business_name is required"})
		}
		if err := store.Upsert(c.Request().Context(), info); err != nil {
			log.Printf("dashboard: save business info: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not save business info"})
		}
		return c.JSON(http.StatusOK, info)
	})
}
