package api

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/spine-examples/todo-list/config"
)

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
		"iat": time.Now().Add(-time.Minute).Unix(),
	}
}

func TestBearerTokenFromStringSuccess(t *testing.T) {
	token, err := bearerTokenFromString("Bearer header.payload.signature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(token) != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", string(token))
	}
}

func TestBearerTokenFromStringErrors(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   error
	}{
		{name: "blank", header: "   ", want: errMissingAuthorization},
		{name: "scheme", header: "Basic a.b.c", want: errBadAuthorization},
		{name: "onlyPrefix", header: "Bearer ", want: errBadAuthorization},
		{name: "manyPeriods", header: "Bearer " + strings.Repeat(".", 1000), want: errBadAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := bearerTokenFromString(tt.header); err != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAuthHeaderOrQuery(t *testing.T) {
	if got := authHeaderOrQuery("", "a.b.c"); got != "Bearer a.b.c" {
		t.Fatalf("unexpected header from query: %q", got)
	}
	if got := authHeaderOrQuery("Bearer x.y.z", "a.b.c"); got != "Bearer x.y.z" {
		t.Fatalf("header should win over query, got %q", got)
	}
}

func TestUserIDFromAuthHeaderHS256(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewAuth(config.Auth{TestMode: true, TestSecret: string(secret)}, nil)

	userID, err := auth.UserIDFromAuthHeader("Bearer " + signHS256(t, secret, validClaims()))
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestUserIDFromBearerRejects(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewAuth(config.Auth{TestMode: true, TestSecret: string(secret)}, nil)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-5 * time.Minute).Unix()
	noSub := validClaims()
	delete(noSub, "sub")
	futureIssued := validClaims()
	futureIssued["iat"] = time.Now().Add(10 * time.Minute).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrongSecret", token: signHS256(t, []byte("other"), validClaims())},
		{name: "expired", token: signHS256(t, secret, expired)},
		{name: "missingSub", token: signHS256(t, secret, noSub)},
		{name: "issuedInFuture", token: signHS256(t, secret, futureIssued)},
		{name: "garbage", token: "a.b.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.UserIDFromBearer([]byte(tt.token)); err == nil {
				t.Fatalf("expected token to be rejected")
			}
		})
	}
	if _, err := auth.UserIDFromAuthHeader(""); err != errMissingAuthorization {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestUserIDFromBearerChecksAudienceAndIssuer(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewAuth(config.Auth{TestMode: true, TestSecret: string(secret)}, nil)
	auth.Audience = "api://todo"
	auth.Issuer = "https://issuer/"

	claims := validClaims()
	claims["aud"] = "api://todo"
	claims["iss"] = "https://issuer/"
	if _, err := auth.UserIDFromBearer([]byte(signHS256(t, secret, claims))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims["aud"] = "api://other"
	if _, err := auth.UserIDFromBearer([]byte(signHS256(t, secret, claims))); err == nil || err.Error() != "invalid audience" {
		t.Fatalf("expected invalid audience, got %v", err)
	}
}

func TestNewAuthProductionMode(t *testing.T) {
	auth := NewAuth(config.Auth{Audience: "api://todo", Domain: "tenant.auth0.com", JWKSCacheTTL: time.Minute}, nil)
	if auth.TestMode || auth.Issuer != "https://tenant.auth0.com/" || auth.Audience != "api://todo" {
		t.Fatalf("unexpected auth config: %+v", auth)
	}
	// HS256 tokens are refused outside test mode.
	if _, err := auth.UserIDFromBearer([]byte(signHS256(t, []byte("s"), validClaims()))); err == nil {
		t.Fatalf("expected HS256 token to be refused")
	}
}
