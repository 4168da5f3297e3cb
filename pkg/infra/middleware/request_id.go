// Package middleware provides the gin middlewares shared by the HTTP services.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/camaral-bot/pkg/id"
	"github.com/kart-io/camaral-bot/pkg/response"
)

// HeaderXRequestID is the header carrying the request id.
const HeaderXRequestID = "X-Request-ID"

// RequestIDConfig defines the config for RequestID middleware.
type RequestIDConfig struct {
	// Header is the header name to use for request ID.
	// Default: "X-Request-ID"
	Header string

	// Generator is the function to generate request IDs.
	// Default: monotonic ULID
	Generator func() string
}

// RequestID returns a middleware that reuses an incoming request id or
// generates a new one, echoes it in the response header and stores it in
// the gin context under response.RequestIDKey.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig returns a RequestID middleware with custom config.
func RequestIDWithConfig(config RequestIDConfig) gin.HandlerFunc {
	if config.Header == "" {
		config.Header = HeaderXRequestID
	}
	if config.Generator == nil {
		config.Generator = id.NewGenerator().Generate
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(config.Header)
		if requestID == "" {
			requestID = config.Generator()
		}

		c.Header(config.Header, requestID)
		c.Set(response.RequestIDKey, requestID)
		c.Next()
	}
}

// GetRequestID returns the request id stored by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(response.RequestIDKey)
}
