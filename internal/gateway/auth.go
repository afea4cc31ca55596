package gateway

import (
	"crypto/subtle"
	"os"

	"github.com/soyeahso/layoutdb/internal/config"
)

// Environment variables consulted when the config leaves a secret empty.
const (
	EnvGatewayToken    = "LAYOUTDB_GATEWAY_TOKEN"
	EnvGatewayPassword = "LAYOUTDB_GATEWAY_PASSWORD"
)

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ResolvedAuth is the effective server auth after env fallbacks.
type ResolvedAuth struct {
	Mode     string
	Token    string
	Password string
}

// ResolveAuth resolves credentials from config, falling back to the
// environment. An empty mode becomes "password" when only a password is
// available and "token" otherwise.
func ResolveAuth(cfg config.GatewayAuth) ResolvedAuth {
	auth := ResolvedAuth{Mode: cfg.Mode, Token: cfg.Token, Password: cfg.Password}
	if auth.Token == "" {
		auth.Token = os.Getenv(EnvGatewayToken)
	}
	if auth.Password == "" {
		auth.Password = os.Getenv(EnvGatewayPassword)
	}
	if auth.Mode == "" {
		if auth.Password != "" && auth.Token == "" {
			auth.Mode = "password"
		} else {
			auth.Mode = "token"
		}
	}
	return auth
}

// Authorize checks client credentials against the server auth.
func Authorize(server ResolvedAuth, client *ConnectAuth) AuthResult {
	if client == nil {
		return AuthResult{Reason: "no credentials provided"}
	}

	var want, got string
	switch server.Mode {
	case "token":
		want, got = server.Token, client.Token
	case "password":
		want, got = server.Password, client.Password
	default:
		return AuthResult{Reason: "unknown auth mode: " + server.Mode}
	}

	switch {
	case want == "":
		return AuthResult{Reason: "server " + server.Mode + " not configured"}
	case got == "":
		return AuthResult{Reason: server.Mode + " required"}
	case !safeEqual(got, want):
		return AuthResult{Reason: server.Mode + "_mismatch"}
	}
	return AuthResult{OK: true, Method: server.Mode}
}

// safeEqual compares in constant time without an early return on length.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
