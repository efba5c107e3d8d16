package handlers

// API error codes returned in JSON { "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodeInvalidRequest     = "invalid_request"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeNotFound           = "not_found"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeInternal           = "internal_error"
)
