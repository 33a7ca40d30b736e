// Package httperr renders the error envelope shared by every API handler.
// Scan outcomes are not errors and never pass through here; only transport
// and infrastructure failures do.
package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

func NewResponse(status int, msg string, detail any) Response {
	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail
	return resp
}

// AbortWithError records err on the context for the error middleware and
// writes the envelope in one step.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := NewResponse(status, msg, detail)
	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// Shorthands for the statuses the handlers actually return.

func BadRequest(c *gin.Context, err error) {
	AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
}

func Conflict(c *gin.Context, err error, msg string) {
	AbortWithError(c, http.StatusConflict, err, msg, nil)
}

func Internal(c *gin.Context, err error) {
	AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
}
