package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/transport/http/middleware"
	"github.com/arklim/account-auth/internal/usecase"
)

const statusSuccess = "success"

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string               `json:"error"`
	TraceID string               `json:"trace_id,omitempty"`
	Fields  []usecase.FieldError `json:"fields,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// StatusResponse is the generic success envelope.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func newStatusResponse(message string) StatusResponse {
	return StatusResponse{Status: statusSuccess, Message: message}
}

// SignupRequest defines the account registration payload.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned when a session has been issued.
type SessionResponse struct {
	Status string            `json:"status"`
	Token  string            `json:"token"`
	User   domain.PublicUser `json:"user"`
}

// TwoFactorChallengeResponse is returned by login when a TOTP code is still required.
type TwoFactorChallengeResponse struct {
	Status           string `json:"status"`
	TempToken        string `json:"tempToken"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

// TwoFactorSetupResponse carries the provisioning material for an authenticator app.
type TwoFactorSetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthURL"`
}

// TwoFactorVerifyRequest completes a login that is waiting for a TOTP code.
type TwoFactorVerifyRequest struct {
	TempToken string `json:"tempToken"`
	Code      string `json:"code"`
}

// TwoFactorCodeRequest carries a TOTP code for the authenticated user.
type TwoFactorCodeRequest struct {
	Code string `json:"code"`
}

// UserResponse wraps a public user view.
type UserResponse struct {
	User domain.PublicUser `json:"user"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
