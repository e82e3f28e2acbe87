package routes

import (
	"errors"
	"net/http"

	"rfid-access-console/internal/backend"
	"rfid-access-console/internal/tracker"
)

// HTTPError represents an error with an associated HTTP status code and user message
type HTTPError struct {
	Err        error    // The underlying error
	StatusCode int      // HTTP status code
	Message    string   // User-friendly message
	StopCodes  []string // Optional stop codes for client-side handling
	Internal   bool     // Whether this is an internal error (hide details from user)
}

// ErrorInfo contains error metadata for user-facing errors
type ErrorInfo struct {
	Message   string   // User-friendly message
	StopCodes []string // Optional stop codes for client-side application
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, err error, message string, stopCodes ...string) *HTTPError {
	return &HTTPError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		StopCodes:  stopCodes,
		Internal:   statusCode >= 500,
	}
}

// Routes-specific errors (that don't conflict with other packages)
var (
	// Validation errors
	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")

	// Internal errors
	ErrInternalServer     = errors.New("internal server error")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Context wiring errors
	ErrTrackerNotFound         = errors.New("tracker not found")
	ErrStorageProviderNotFound = errors.New("storage provider not found")
)

// knownErrors is the lookup order for wrapped errors. A toggle failure wraps
// the backend error that caused it, so it is listed first.
var knownErrors = []error{
	tracker.ErrToggleFailed,
	tracker.ErrToggleInProgress,
	tracker.ErrNoSnapshot,
	tracker.ErrProductNotFound,
	tracker.ErrCardNotFound,
	tracker.ErrNotInspecting,
	backend.ErrUnavailable,
	backend.ErrUnexpectedStatus,
	backend.ErrMalformedResponse,
	ErrUnauthorized,
	ErrInvalidRequest,
	ErrMissingParameter,
	ErrInvalidParameter,
	ErrOperatorNotFound,
	ErrInternalServer,
	ErrServiceUnavailable,
	ErrTrackerNotFound,
	ErrStorageProviderNotFound,
}

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:   http.StatusBadRequest,
	ErrMissingParameter: http.StatusBadRequest,
	ErrInvalidParameter: http.StatusBadRequest,

	// 401 Unauthorized
	ErrUnauthorized: http.StatusUnauthorized,

	// 404 Not Found
	tracker.ErrProductNotFound: http.StatusNotFound,
	tracker.ErrCardNotFound:    http.StatusNotFound,
	tracker.ErrNotInspecting:   http.StatusNotFound,

	// 409 Conflict
	tracker.ErrToggleInProgress: http.StatusConflict,

	// 500 Internal Server Error
	ErrInternalServer:          http.StatusInternalServerError,
	ErrTrackerNotFound:         http.StatusInternalServerError,
	ErrStorageProviderNotFound: http.StatusInternalServerError,
	ErrOperatorNotFound:        http.StatusInternalServerError,

	// 502 Bad Gateway
	tracker.ErrToggleFailed:      http.StatusBadGateway,
	backend.ErrUnavailable:       http.StatusBadGateway,
	backend.ErrUnexpectedStatus:  http.StatusBadGateway,
	backend.ErrMalformedResponse: http.StatusBadGateway,

	// 503 Service Unavailable
	tracker.ErrNoSnapshot: http.StatusServiceUnavailable,
	ErrServiceUnavailable: http.StatusServiceUnavailable,
}

// errorInfoMap maps errors to user-friendly messages and optional stop codes
var errorInfoMap = map[error]ErrorInfo{
	// Validation
	ErrInvalidRequest: {
		Message:   "Invalid request format",
		StopCodes: []string{"INVALID_REQUEST"},
	},
	ErrMissingParameter: {
		Message:   "Required parameter is missing",
		StopCodes: []string{"MISSING_PARAMETER"},
	},
	ErrInvalidParameter: {
		Message:   "Invalid parameter value",
		StopCodes: []string{"INVALID_PARAMETER"},
	},

	// Authentication
	ErrUnauthorized: {
		Message:   "A valid operator token is required",
		StopCodes: []string{"UNAUTHORIZED"},
	},

	// Tracking
	tracker.ErrProductNotFound: {
		Message:   "Product not found",
		StopCodes: []string{"PRODUCT_NOT_FOUND"},
	},
	tracker.ErrCardNotFound: {
		Message:   "Card is not listed on this product",
		StopCodes: []string{"CARD_NOT_FOUND"},
	},
	tracker.ErrNotInspecting: {
		Message:   "No product is open",
		StopCodes: []string{"NOT_INSPECTING"},
	},
	tracker.ErrToggleInProgress: {
		Message:   "Another card status change is being saved",
		StopCodes: []string{"TOGGLE_IN_PROGRESS"},
	},
	tracker.ErrToggleFailed: {
		Message:   "Failed to update card status",
		StopCodes: []string{"TOGGLE_FAILED"},
	},
	tracker.ErrNoSnapshot: {
		Message:   "Access data has not been loaded yet",
		StopCodes: []string{"SNAPSHOT_NOT_READY"},
	},

	// Backend
	backend.ErrUnavailable: {
		Message:   "Backend is unreachable",
		StopCodes: []string{"BACKEND_UNAVAILABLE"},
	},
	backend.ErrUnexpectedStatus: {
		Message:   "Backend returned an error",
		StopCodes: []string{"BACKEND_ERROR"},
	},
	backend.ErrMalformedResponse: {
		Message:   "Backend returned malformed data",
		StopCodes: []string{"BACKEND_ERROR"},
	},

	// Internal (no stop codes for internal errors)
	ErrInternalServer: {
		Message: "An internal error occurred",
	},
	ErrTrackerNotFound: {
		Message: "Tracking service is not available",
	},
	ErrStorageProviderNotFound: {
		Message: "Audit storage is not available",
	},
	ErrOperatorNotFound: {
		Message: "An internal error occurred",
	},
	ErrServiceUnavailable: {
		Message: "Service is temporarily unavailable",
	},
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	// Check if it's already an HTTPError
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	// Check direct match
	if status, ok := errorStatusMap[err]; ok {
		return status
	}

	// Check if error wraps a known error
	for _, knownErr := range knownErrors {
		if errors.Is(err, knownErr) {
			return errorStatusMap[knownErr]
		}
	}

	// Default to 500 Internal Server Error
	return http.StatusInternalServerError
}

// GetErrorInfo returns error information including message and stop codes
func GetErrorInfo(err error) ErrorInfo {
	// Check if it's an HTTPError with custom info
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{
			Message:   httpErr.Message,
			StopCodes: httpErr.StopCodes,
		}
	}

	// Check direct match
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	// Check if error wraps a known error
	for _, knownErr := range knownErrors {
		if errors.Is(err, knownErr) {
			return errorInfoMap[knownErr]
		}
	}

	// For unknown errors, return a generic message for 5xx, specific for others
	status := GetErrorStatus(err)
	if status >= 500 {
		return ErrorInfo{Message: "An internal error occurred"}
	}
	return ErrorInfo{Message: err.Error()}
}

// GetErrorMessage returns a user-friendly message for an error
func GetErrorMessage(err error) string {
	return GetErrorInfo(err).Message
}
