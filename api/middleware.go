package api

import (
	"net/url"
	"strings"

	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	authTokenCookie   = "authToken"
	impersonateCookie = "impersonateUserId"
	authContextKey    = "auth"
)

// RequestID tags every request with an id, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Identity resolves who is acting: the bearer token from the Authorization
// header or the authToken cookie, and an optional impersonation id from the
// impersonationId query or the impersonateUserId cookie.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(authContextKey, resolveAuth(c))
		c.Next()
	}
}

func resolveAuth(c *gin.Context) gateway.Auth {
	var auth gateway.Auth

	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		auth.Token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if auth.Token == "" {
		auth.Token = cookieValue(c, authTokenCookie)
	}

	auth.ImpersonationID = c.Query("impersonationId")
	if auth.ImpersonationID == "" {
		auth.ImpersonationID = cookieValue(c, impersonateCookie)
	}
	return auth
}

func cookieValue(c *gin.Context, name string) string {
	raw, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	if v, err := url.QueryUnescape(raw); err == nil {
		return v
	}
	return raw
}

// authFrom returns the identity resolved by Identity, resolving it on the spot
// for handlers invoked without the middleware.
func authFrom(c *gin.Context) gateway.Auth {
	if v, ok := c.Get(authContextKey); ok {
		if auth, ok := v.(gateway.Auth); ok {
			return auth
		}
	}
	return resolveAuth(c)
}
