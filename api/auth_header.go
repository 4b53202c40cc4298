package api

import (
	"errors"
	"strings"
	"unsafe"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

const bearerPrefix = "Bearer "

// bearerTokenFromString returns the JWT of a "Bearer <jwt>" header value
// without copying it.
func bearerTokenFromString(raw string) ([]byte, error) {
	trimmed := strings.Trim(raw, " ")
	if trimmed == "" {
		return nil, errMissingAuthorization
	}
	if len(trimmed) <= len(bearerPrefix) || !strings.HasPrefix(trimmed, bearerPrefix) {
		return nil, errBadAuthorization
	}
	token := trimmed[len(bearerPrefix):]
	if strings.Count(token, ".") != 2 {
		return nil, errBadAuthorization
	}
	return readOnlyBytes(token), nil
}

// authHeaderOrQuery falls back to a ?token= query parameter for clients such
// as EventSource that cannot set headers.
func authHeaderOrQuery(header, token string) string {
	if header == "" && token != "" {
		return bearerPrefix + token
	}
	return header
}

func readOnlyBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func readOnlyString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
