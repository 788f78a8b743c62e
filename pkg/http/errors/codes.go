package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound         = "not_found"
	ErrCodeInvalidSessionID = "invalid_session_id"

	// Judge authorization
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeInvalidJudgeToken = "invalid_judge_token"

	// Session lifecycle
	ErrCodeSessionCreationFailed  = "session_creation_failed"
	ErrCodeStartFailed            = "start_failed"
	ErrCodeCategoryCreationFailed = "category_creation_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
