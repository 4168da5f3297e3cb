package errors

import "net/http"

// OK represents a successful operation.
var OK = Register(&Errno{Code: 0, HTTP: http.StatusOK, Message: "Success"})

// Common errors.
var (
	ErrBadRequest = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 0),
		HTTP:    http.StatusBadRequest,
		Message: "Bad request",
	})

	ErrInvalidArgument = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 1),
		HTTP:    http.StatusBadRequest,
		Message: "Invalid argument",
	})

	ErrUnauthorized = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryAuth, 0),
		HTTP:    http.StatusUnauthorized,
		Message: "Unauthorized",
	})

	ErrNotFound = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryResource, 0),
		HTTP:    http.StatusNotFound,
		Message: "Resource not found",
	})

	ErrInternal = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryInternal, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Internal server error",
	})

	ErrTimeout = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryTimeout, 0),
		HTTP:    http.StatusGatewayTimeout,
		Message: "Request timeout",
	})

	ErrConfiguration = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryConfig, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Configuration error",
	})
)

// Bot errors.
var (
	// ErrProvider marks a failed call to an embedding, vector, chat,
	// transcription or messaging provider.
	ErrProvider = Register(&Errno{
		Code:    MakeCode(ServiceBot, CategoryNetwork, 1),
		HTTP:    http.StatusBadGateway,
		Message: "Upstream provider error",
	})

	ErrProviderUnavailable = Register(&Errno{
		Code:    MakeCode(ServiceBot, CategoryNetwork, 2),
		HTTP:    http.StatusServiceUnavailable,
		Message: "Upstream provider temporarily unavailable",
	})

	ErrIndexing = Register(&Errno{
		Code:    MakeCode(ServiceBot, CategoryInternal, 1),
		HTTP:    http.StatusInternalServerError,
		Message: "Failed to index document",
	})

	ErrConversationStore = Register(&Errno{
		Code:    MakeCode(ServiceBot, CategoryCache, 1),
		HTTP:    http.StatusInternalServerError,
		Message: "Conversation store error",
	})
)
