package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/stockmeta/pkg/stockmeta/export"
	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// respondErr maps sentinel errors to a status and code.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, internalerr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, export.ErrNothingToExport):
		RespondError(c, http.StatusNotFound, "nothing_to_export", err)
	case errors.Is(err, internalerr.ErrStoreUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
