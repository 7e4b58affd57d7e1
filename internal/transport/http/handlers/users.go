package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/account-auth/internal/transport/http/middleware"
	"github.com/arklim/account-auth/internal/usecase"
)

var getUserErrorCases = []ErrorCase{
	{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
}

// UserHandler serves user profile lookups.
type UserHandler struct {
	auth *usecase.AuthService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(auth *usecase.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// Me godoc
// @Summary Current user profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}
	h.respondWithUser(c, identity.UserID)
}

// GetByID godoc
// @Summary Look up a user by id
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	h.respondWithUser(c, c.Param("id"))
}

func (h *UserHandler) respondWithUser(c *gin.Context, id string) {
	user, err := h.auth.GetUser(c.Request.Context(), id)
	if err != nil {
		RespondWithMappedError(c, err, getUserErrorCases, http.StatusInternalServerError, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, UserResponse{User: user})
}
