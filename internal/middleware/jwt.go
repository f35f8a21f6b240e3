package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
    CtxBookerID    = "booker_id"    // uint64
    CtxBookerEmail = "booker_email" // string
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the booker id and email from its claims in the context.
// Requests without a usable token are answered with 401 and {msg}.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "No token, authorization denied"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Token is not valid"})
            }
            // ParseAccessToken has already checked the subject.
            id, _ := claims.BookerID()

            c.Set(CtxBookerID, id)
            c.Set(CtxBookerEmail, claims.Email)
            return next(c)
        }
    }
}
