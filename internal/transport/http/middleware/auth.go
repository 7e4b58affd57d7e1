package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/usecase"
)

const bearerPrefix = "Bearer "

// Authenticator resolves a session token to the identity of an existing user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

// Authenticate requires a valid session. The token is read from the
// Authorization bearer header first and from cookieName otherwise.
func Authenticate(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, "You are not logged in")
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				abortWithError(c, http.StatusUnauthorized, "Invalid or expired session")
				return
			}
			_ = c.Error(err)
			abortWithError(c, http.StatusInternalServerError, "Unable to authenticate request")
			return
		}

		setIdentity(c, identity)
		c.Next()
	}
}

// Authorizer decides whether an identity may act with one of the allowed roles.
type Authorizer interface {
	Authorize(identity domain.Identity, allowed ...domain.Role) error
}

// RequireRole lets the request through only when authz accepts the
// authenticated identity for roles. It must run after Authenticate.
func RequireRole(authz Authorizer, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "You are not logged in")
			return
		}

		if err := authz.Authorize(identity, roles...); err != nil {
			if errors.Is(err, usecase.ErrForbidden) {
				abortWithError(c, http.StatusForbidden, "You do not have permission to perform this action")
				return
			}
			_ = c.Error(err)
			abortWithError(c, http.StatusInternalServerError, "Unable to authorize request")
			return
		}

		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)); token != "" {
			return token
		}
	}

	if cookieName == "" {
		return ""
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie)
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":    message,
		"trace_id": GetTraceID(c),
	})
}
