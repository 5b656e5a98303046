package middleware

// contextKey defines a type for context keys to avoid collisions.
type contextKey string

const (
	// DisplayNameKey holds the submitter name asserted by the host page (string).
	DisplayNameKey contextKey = "displayName"
)

// RequestIDKey is the key used to store the request ID in the gin context.
const RequestIDKey = "request_id"
