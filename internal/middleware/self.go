package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
)

// RequireSelf only lets a request through when the authenticated booker
// is the one named by the path parameter param (e.g. PUT /api/auth/:id).
// It must run after JWTAuth.  A malformed id is a 400, anyone else's id
// a 403.
func RequireSelf(param string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            target, err := strconv.ParseUint(c.Param(param), 10, 64)
            if err != nil {
                return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid id"})
            }
            id, ok := BookerID(c)
            if !ok || id != target {
                return c.JSON(http.StatusForbidden, echo.Map{"msg": "Forbidden"})
            }
            return next(c)
        }
    }
}
