// Package httpserver wires the HTTP and websocket surface of the voice agent.
package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/anazari96/voice-agent/internal/agent"
	"github.com/anazari96/voice-agent/internal/profile"
)

// ProfileStore is the dashboard's view of the business record.
type ProfileStore interface {
	Get(ctx context.Context) (profile.BusinessInfo, error)
	Upsert(ctx context.Context, info profile.BusinessInfo) error
}

// Registrar lets the Twilio webhook service attach its routes.
type Registrar interface {
	RegisterHandlers(e *echo.Echo)
}

// Deps carries everything the server needs; nil fields disable their routes.
type Deps struct {
	// NewSession builds the per-call orchestrator once the media websocket is
	// accepted. ctx is cancelled when the server shuts down.
	NewSession func(ctx context.Context, t agent.Transport) *agent.Session
	Profiles   ProfileStore
	Twilio     Registrar
}

// New creates the configured Echo server.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if deps.NewSession != nil {
		e.GET("/streams", handleStreams(deps.NewSession))
	}
	if deps.Profiles != nil {
		registerDashboard(e, deps.Profiles)
	}
	if deps.Twilio != nil {
		deps.Twilio.RegisterHandlers(e)
	}
	return e
}
