package handlers

const (
	GuestCookieName   = "guestId"
	RefreshCookieName = "refreshToken"
	CSRFCookieName    = "csrf_id"
	CSRFHeaderName    = "X-CSRF-Token"

	ErrInvalidJSON         = "Invalid request body"
	ErrUnauthorized        = "Authentication required"
	ErrGuestOrAuthRequired = "Authentication or guest session required"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests, please try again later"
	ErrCSRFInvalid         = "Invalid CSRF token"
)
