package handlers

const (
	authorizationHeader = "Authorization"
	requestIDHeader     = "X-Request-ID"

	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Authentication required"
	ErrAdminRequired       = "Admin access required"
	ErrTooManyRequests     = "Too many requests, please try again later"
	ErrInternalServerError = "Internal server error"
)
