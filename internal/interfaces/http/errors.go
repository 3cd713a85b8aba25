package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/application/workflow"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	domainwf "github.com/garyjia/training-procurement/internal/domain/workflow"
)

// PartialFailureDetails is the error body of an operation that stopped midway
type PartialFailureDetails struct {
	Operation string   `json:"operation"`
	Completed []string `json:"completed_steps"`
	Failed    string   `json:"failed_step"`
}

// statusFor maps an application error to its HTTP status and a client-safe body
func statusFor(err error) (int, Response) {
	var (
		partial   *workflow.PartialFailureError
		invalid   *entity.ValidationError
		notFound  *entity.NotFoundError
		duplicate *entity.DuplicateSubmissionError
	)

	switch {
	case errors.As(err, &partial):
		return http.StatusInternalServerError, Response{
			Error: "operation partially applied",
			Details: PartialFailureDetails{
				Operation: partial.Operation,
				Completed: partial.Completed,
				Failed:    partial.Failed,
			},
		}
	case errors.As(err, &invalid):
		return http.StatusBadRequest, Response{Error: "validation failed", Details: invalid.Fields}
	case errors.Is(err, port.ErrUnknownFilterField):
		return http.StatusBadRequest, Response{Error: err.Error()}
	case errors.Is(err, entity.ErrInvalidCredentials), errors.Is(err, entity.ErrUnauthenticated):
		return http.StatusUnauthorized, Response{Error: err.Error()}
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden, Response{Error: "forbidden"}
	case errors.As(err, &notFound):
		return http.StatusNotFound, Response{Error: notFound.Error()}
	case errors.As(err, &duplicate):
		return http.StatusConflict, Response{Error: duplicate.Error()}
	case errors.Is(err, domainwf.ErrInvalidTransition):
		return http.StatusConflict, Response{Error: err.Error()}
	default:
		return http.StatusInternalServerError, Response{Error: "internal error"}
	}
}

// fail writes the mapped error response
func (h *Handlers) fail(c *gin.Context, operation string, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "operation", operation, "path", c.FullPath(), "error", err)
	}
	body.Success = false
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
