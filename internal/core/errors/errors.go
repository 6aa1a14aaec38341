package errors

const (
	HttpInternalError       = "internal_error"
	HttpInvalidJsonError    = "invalid_json"
	HttpInvalidQueryError   = "invalid_query"
	HttpDuplicateEventError = "duplicate_event"
	HttpNotFoundError       = "not_found"
	HttpCycleDetectedError  = "clone_cycle_detected"
)

// ErrorResponse is the error response body of every HTTP endpoint.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
