// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// RegisterRoutes registers the routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers /api/auth.  Register and login are public and
// run behind limiter (which may be nil); the rest need a bearer token,
// and changing or deleting a booker is only allowed to that booker.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, chain(limiter)...)
	g.POST("/login", a.Login, chain(limiter)...)

	auth := middleware.JWTAuth(jwtSecret)
	g.GET("", a.List, auth)
	g.PUT("/:id", a.Update, auth, middleware.RequireSelf("id"))
	g.DELETE("/:id", a.Delete, auth, middleware.RequireSelf("id"))
}

// BookingMiddleware groups the optional per-route middleware for
// /api/bookings.  Nil entries are skipped.
type BookingMiddleware struct {
	Limiter    echo.MiddlewareFunc // writes
	Cache      echo.MiddlewareFunc // reads
	Invalidate echo.MiddlewareFunc // writes
}

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterBooking registers /api/bookings.  Every route requires a
// bearer token.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, mw BookingMiddleware) {
	g := e.Group("/api/bookings", middleware.JWTAuth(jwtSecret))

	read := chain(mw.Cache)
	write := chain(mw.Limiter, mw.Invalidate)

	g.GET("/availability", b.Availability, read...)
	g.GET("/auditorium/:auditoriumId/seats", b.Seats, read...)
	g.GET("", b.List, read...)
	g.GET("/confirmation/:id", b.Confirmation, read...)
	g.GET("/confirmation/:id/qrcode", b.QRCode)
	g.GET("/confirmation/:id/pdf", b.PDF)

	g.POST("/book", b.Create, write...)
	g.PUT("/:id", b.Update, write...)
	g.DELETE("/:id", b.Delete, write...)
}
