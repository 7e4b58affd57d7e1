package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/account-auth/internal/transport/http/middleware"
	"github.com/arklim/account-auth/internal/usecase"
)

const (
	twoFactorEnabledMessage  = "Two-factor authentication enabled"
	twoFactorDisabledMessage = "Two-factor authentication disabled"
)

var (
	setupTwoFactorErrorCases = []ErrorCase{
		{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		{Err: usecase.ErrTwoFactorAlreadyEnabled, Status: http.StatusBadRequest, Message: "Two-factor authentication is already enabled"},
	}

	verifyTwoFactorErrorCases = []ErrorCase{
		{Err: usecase.ErrInvalidToken, Status: http.StatusUnauthorized, Message: "Invalid or expired temporary token"},
		{Err: usecase.ErrInvalidCode, Status: http.StatusUnauthorized, Message: "Invalid two-factor code"},
	}

	confirmTwoFactorErrorCases = []ErrorCase{
		{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		{Err: usecase.ErrTwoFactorAlreadyEnabled, Status: http.StatusBadRequest, Message: "Two-factor authentication is already enabled"},
		{Err: usecase.ErrTwoFactorNotSetup, Status: http.StatusBadRequest, Message: "Two-factor authentication has not been set up"},
		{Err: usecase.ErrInvalidCode, Status: http.StatusUnauthorized, Message: "Invalid two-factor code"},
	}

	disableTwoFactorErrorCases = []ErrorCase{
		{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		{Err: usecase.ErrTwoFactorNotEnabled, Status: http.StatusBadRequest, Message: "Two-factor authentication is not enabled"},
	}
)

// TwoFactorHandler exposes TOTP enrolment and the second login step.
type TwoFactorHandler struct {
	auth   *usecase.AuthService
	cookie SessionCookie
}

// NewTwoFactorHandler constructs TwoFactorHandler. Sessions completed through
// the second step are issued exactly like a direct login.
func NewTwoFactorHandler(auth *usecase.AuthService, cookie SessionCookie) *TwoFactorHandler {
	return &TwoFactorHandler{auth: auth, cookie: cookie}
}

// RegisterRoutes binds the 2FA routes. requireAuth guards the enrolment endpoints.
func (h *TwoFactorHandler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	r.POST("/verify", h.verify)

	r.POST("/setup", requireAuth, h.setup)
	r.POST("/confirm", requireAuth, h.confirm)
	r.POST("/disable", requireAuth, h.disable)
}

// Setup godoc
// @Summary Start two-factor enrolment
// @Description Generates a TOTP secret for the caller. 2FA stays disabled until confirmed.
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TwoFactorSetupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/auth/2fa/setup [post]
func (h *TwoFactorHandler) setup(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	setup, err := h.auth.SetupTwoFactor(c.Request.Context(), identity)
	if err != nil {
		RespondWithMappedError(c, err, setupTwoFactorErrorCases, http.StatusInternalServerError, "Failed to set up two-factor authentication")
		return
	}

	c.JSON(http.StatusOK, TwoFactorSetupResponse{
		Secret:     setup.Secret,
		OTPAuthURL: setup.OTPAuthURL,
	})
}

// Verify godoc
// @Summary Complete a two-factor login
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Param request body TwoFactorVerifyRequest true "Temporary token and TOTP code"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/2fa/verify [post]
func (h *TwoFactorHandler) verify(c *gin.Context) {
	var req TwoFactorVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	result, err := h.auth.VerifyTwoFactor(c.Request.Context(), usecase.VerifyTwoFactorInput{
		TempToken: req.TempToken,
		Code:      req.Code,
	})
	if err != nil {
		RespondWithMappedError(c, err, verifyTwoFactorErrorCases, http.StatusInternalServerError, "Failed to verify two-factor code")
		return
	}

	h.cookie.respondWithSession(c, result)
}

// Confirm godoc
// @Summary Confirm two-factor enrolment
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TwoFactorCodeRequest true "TOTP code"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/auth/2fa/confirm [post]
func (h *TwoFactorHandler) confirm(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req TwoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	if err := h.auth.ConfirmTwoFactor(c.Request.Context(), identity, req.Code); err != nil {
		RespondWithMappedError(c, err, confirmTwoFactorErrorCases, http.StatusInternalServerError, "Failed to enable two-factor authentication")
		return
	}

	c.JSON(http.StatusOK, newStatusResponse(twoFactorEnabledMessage))
}

// Disable godoc
// @Summary Disable two-factor authentication
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/auth/2fa/disable [post]
func (h *TwoFactorHandler) disable(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.DisableTwoFactor(c.Request.Context(), identity); err != nil {
		RespondWithMappedError(c, err, disableTwoFactorErrorCases, http.StatusInternalServerError, "Failed to disable two-factor authentication")
		return
	}

	c.JSON(http.StatusOK, newStatusResponse(twoFactorDisabledMessage))
}
