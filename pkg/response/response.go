// Package response writes the JSON envelope used by the service's own API.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/camaral-bot/pkg/errors"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Response is the standard envelope.
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// OK writes a 200 envelope carrying data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Code:      errors.OK.Code,
		Message:   errors.OK.Message,
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
		Timestamp: time.Now().UnixMilli(),
	})
}

// Fail writes the envelope for err using its errno HTTP status.
func Fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	c.JSON(e.HTTPStatus(), &Response{
		Code:      e.Code,
		Message:   e.Message,
		RequestID: c.GetString(RequestIDKey),
		Timestamp: time.Now().UnixMilli(),
	})
}

// Abort writes the failure envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}
