package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soyeahso/layoutdb/internal/config"
)

func TestResolveAuth(t *testing.T) {
	t.Setenv(EnvGatewayToken, "")
	t.Setenv(EnvGatewayPassword, "")

	auth := ResolveAuth(config.GatewayAuth{Mode: "token", Token: "cfg-token"})
	assert.Equal(t, ResolvedAuth{Mode: "token", Token: "cfg-token"}, auth)

	auth = ResolveAuth(config.GatewayAuth{Password: "secret"})
	assert.Equal(t, "password", auth.Mode, "password only defaults to password mode")

	auth = ResolveAuth(config.GatewayAuth{})
	assert.Equal(t, "token", auth.Mode)
}

func TestResolveAuth_EnvFallback(t *testing.T) {
	t.Setenv(EnvGatewayToken, "env-token")
	t.Setenv(EnvGatewayPassword, "env-password")

	auth := ResolveAuth(config.GatewayAuth{Mode: "token"})
	assert.Equal(t, "env-token", auth.Token)
	assert.Equal(t, "env-password", auth.Password)

	auth = ResolveAuth(config.GatewayAuth{Mode: "token", Token: "cfg-token"})
	assert.Equal(t, "cfg-token", auth.Token, "config wins over env")
}

func TestAuthorize(t *testing.T) {
	tokenAuth := ResolvedAuth{Mode: "token", Token: "abc"}
	passwordAuth := ResolvedAuth{Mode: "password", Password: "pw"}

	tests := []struct {
		name       string
		server     ResolvedAuth
		client     *ConnectAuth
		wantOK     bool
		wantReason string
	}{
		{"token ok", tokenAuth, &ConnectAuth{Token: "abc"}, true, ""},
		{"token mismatch", tokenAuth, &ConnectAuth{Token: "abd"}, false, "token_mismatch"},
		{"token missing", tokenAuth, &ConnectAuth{Password: "abc"}, false, "token required"},
		{"password ok", passwordAuth, &ConnectAuth{Password: "pw"}, true, ""},
		{"password mismatch", passwordAuth, &ConnectAuth{Password: "nope"}, false, "password_mismatch"},
		{"no credentials", tokenAuth, nil, false, "no credentials provided"},
		{"server token unset", ResolvedAuth{Mode: "token"}, &ConnectAuth{Token: "abc"}, false, "server token not configured"},
		{"unknown mode", ResolvedAuth{Mode: "oauth"}, &ConnectAuth{Token: "abc"}, false, "unknown auth mode: oauth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Authorize(tt.server, tt.client)
			assert.Equal(t, tt.wantOK, res.OK)
			assert.Equal(t, tt.wantReason, res.Reason)
			if tt.wantOK {
				assert.Equal(t, tt.server.Mode, res.Method)
			}
		})
	}
}

func TestSafeEqual(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
	assert.True(t, safeEqual("", ""))
	assert.False(t, safeEqual("secret", "secreT"))
	assert.False(t, safeEqual("secret", "secret-longer"))
	assert.False(t, safeEqual("", "x"))
}
