package backend

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/usecase"
)

type errorBody struct {
	Error string `json:"error"`
	// Rollback is filled for composite operations that failed and
	// unwound, so the caller can see what was undone.
	Rollback string `json:"rollback,omitempty"`
}

// respondErr maps the orchestrator's error taxonomy onto HTTP statuses.
// Remote and saga failures are 502: the control plane is fine, the
// administered server is not.
func respondErr(c *gin.Context, err error) {
	body := errorBody{Error: err.Error()}

	var sagaErr *usecase.SagaError
	if errors.As(err, &sagaErr) {
		body.Rollback = sagaErr.Compensation.Note()
		c.JSON(http.StatusBadGateway, body)
		return
	}

	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, body)
	case errors.Is(err, model.ErrAlreadyExists),
		errors.Is(err, model.ErrBuiltInRole),
		errors.Is(err, model.ErrHasDependents),
		errors.Is(err, model.ErrAlreadyRevoked):
		c.JSON(http.StatusConflict, body)
	default:
		var remoteErr *model.RemoteError
		if errors.As(err, &remoteErr) {
			c.JSON(http.StatusBadGateway, body)
			return
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}
