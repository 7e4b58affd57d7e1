package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/account-auth/internal/usecase"
)

const (
	emailVerifiedMessage = "Email verified successfully. You can now log in."
	loggedOutMessage     = "Logged out successfully"
)

var (
	signupErrorCases = []ErrorCase{
		{Err: usecase.ErrDuplicateEmail, Status: http.StatusBadRequest, Message: "Email already registered"},
	}

	verifyEmailErrorCases = []ErrorCase{
		{Err: usecase.ErrInvalidToken, Status: http.StatusBadRequest, Message: "Invalid or expired verification token"},
		{Err: usecase.ErrAlreadyVerified, Status: http.StatusBadRequest, Message: "Email already verified"},
	}

	loginErrorCases = []ErrorCase{
		{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Incorrect email or password"},
		{Err: usecase.ErrEmailNotVerified, Status: http.StatusUnauthorized, Message: "Please verify your email before logging in"},
	}
)

// AuthHandler exposes signup, email verification, login and logout endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	cookie SessionCookie
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/signup", h.signup)
	r.GET("/verify-email", h.verifyEmail)
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
}

// Signup godoc
// @Summary Register a new account
// @Description Creates an unverified account and emails a verification link. Does not log the user in.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup payload"
// @Success 201 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		RespondWithMappedError(c, err, signupErrorCases, http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, newStatusResponse(result.Message))
}

// VerifyEmail godoc
// @Summary Confirm an email address
// @Tags Authentication
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/auth/verify-email [get]
func (h *AuthHandler) verifyEmail(c *gin.Context) {
	if err := h.auth.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		RespondWithMappedError(c, err, verifyEmailErrorCases, http.StatusInternalServerError, "Failed to verify email")
		return
	}

	c.JSON(http.StatusOK, newStatusResponse(emailVerifiedMessage))
}

// Login godoc
// @Summary Log in with email and password
// @Description Issues a session token and cookie, or a temporary token when two-factor authentication is enabled.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} SessionResponse
// @Success 200 {object} TwoFactorChallengeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if result.TwoFactorRequired {
		c.JSON(http.StatusOK, TwoFactorChallengeResponse{
			Status:           statusSuccess,
			TempToken:        result.StepUpToken,
			TwoFactorEnabled: true,
		})
		return
	}

	h.cookie.respondWithSession(c, result)
}

// Logout godoc
// @Summary Log out
// @Description Clears the session cookie. Always succeeds.
// @Tags Authentication
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	h.cookie.clear(c)
	c.JSON(http.StatusOK, newStatusResponse(loggedOutMessage))
}
