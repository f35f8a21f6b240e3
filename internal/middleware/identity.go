package middleware

// identity.go holds helpers that read the authenticated booker from the
// Echo context.  They are shared by handlers, the rate limiter and
// RequireSelf.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// BookerID returns the booker id stored by JWTAuth.
func BookerID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(CtxBookerID).(uint64)
    return id, ok && id != 0
}

// BookerEmail returns the booker email stored by JWTAuth.
func BookerEmail(c echo.Context) string {
    email, _ := c.Get(CtxBookerEmail).(string)
    return email
}

// bookerKey identifies the caller in rate limit keys.  It returns
// "guest" when no booker is authenticated.
func bookerKey(c echo.Context) string {
    if id, ok := BookerID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
