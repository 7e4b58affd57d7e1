package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/account-auth/internal/usecase"
)

// DefaultSessionCookieName is the cookie the browser session token travels in.
const DefaultSessionCookieName = "jwt"

// SessionCookie describes how the session token is stored in the browser.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (s SessionCookie) name() string {
	if s.Name == "" {
		return DefaultSessionCookieName
	}
	return s.Name
}

func (s SessionCookie) set(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.name(),
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.TTL),
		MaxAge:   int(s.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s SessionCookie) clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.name(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// respondWithSession stores the session token in the cookie and echoes it in the body.
func (s SessionCookie) respondWithSession(c *gin.Context, result usecase.LoginResult) {
	s.set(c, result.SessionToken)
	c.JSON(http.StatusOK, SessionResponse{
		Status: statusSuccess,
		Token:  result.SessionToken,
		User:   result.User,
	})
}
