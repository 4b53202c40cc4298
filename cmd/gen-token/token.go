package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// signToken returns an HS256 token accepted by the API in test mode.
func signToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("TEST_JWT_SECRET must be set")
	}
	if userID == "" {
		return "", errors.New("user id must not be empty")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// userIDs names the users to sign for: the explicit id when given, otherwise
// prefix alone for a single token or prefix-N from start on.
func userIDs(explicit, prefix string, count, start int) []string {
	if explicit != "" {
		return []string{explicit}
	}
	if count == 1 {
		return []string{prefix}
	}
	ids := make([]string, count)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, start+i)
	}
	return ids
}
