package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/account-auth/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

const validationFailedMessage = "validation failed"

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
// Validation errors always answer 400 with per-field details. Unmapped errors are attached to the gin
// context so the access log records them.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	var validationErr *usecase.ValidationError
	if errors.As(err, &validationErr) {
		resp := NewErrorResponse(c, validationFailedMessage)
		resp.Fields = validationErr.Fields
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			message := cs.Message
			if message == "" {
				message = cs.Err.Error()
			}
			c.JSON(cs.Status, NewErrorResponse(c, message))
			return
		}
	}

	_ = c.Error(err)
	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

func respondInvalidPayload(c *gin.Context) {
	c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
}
