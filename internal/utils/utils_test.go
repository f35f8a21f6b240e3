package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash equals plain text")
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Error("VerifyPassword rejected the right password")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "a@b.com", 60)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if d := time.Until(tok.Exp); d < 59*time.Minute || d > 61*time.Minute {
		t.Fatalf("expiry %v not ~60m away", d)
	}

	claims, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	id, err := claims.BookerID()
	if err != nil || id != 42 {
		t.Fatalf("BookerID = %d, %v", id, err)
	}
	if claims.Email != "a@b.com" {
		t.Fatalf("Email = %q", claims.Email)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("secret", 1, "a@b.com", 60)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := NewAccessToken("secret", 1, "a@b.com", -5)
	if err != nil {
		t.Fatal(err)
	}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{"wrong secret", "other", good.Token},
		{"expired", "secret", expired.Token},
		{"garbage", "secret", "not-a-jwt"},
		{"missing subject", "secret", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.com", true},
		{"first.last+tag@mail.example.org", true},
		{"", false},
		{"plain", false},
		{"a@b", false},
		{"a b@c.com", false},
	}
	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}
