package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string returned to the client as
// {"token": ...}; Exp stores the expiration timestamp.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the payload of an access token.  The booker id travels in
// the standard subject claim; the email is carried alongside so handlers
// can default a booking's contact address without a lookup.
type Claims struct {
    Email string `json:"email"`
    jwt.RegisteredClaims
}

// BookerID returns the subject claim as a booker id.
func (c *Claims) BookerID() (uint64, error) {
    return strconv.ParseUint(c.Subject, 10, 64)
}

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// subject checks.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a booker.  It takes the
// signing secret, the booker ID, the booker's email and a TTL in minutes.
func NewAccessToken(secret string, bookerID uint64, email string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := Claims{
        Email: email,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(bookerID, 10),
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and returns its claims.  Only
// HMAC signing methods are accepted and the subject must be a booker id.
func ParseAccessToken(secret, raw string) (*Claims, error) {
    tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil {
        return nil, err
    }
    claims, ok := tok.Claims.(*Claims)
    if !ok || !tok.Valid {
        return nil, ErrInvalidToken
    }
    if _, err := claims.BookerID(); err != nil {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
