package store

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// serverTextPolicy removes markup some backends put in their error text.
var serverTextPolicy = bluemonday.StrictPolicy()

// Error Handling Guidelines:
// - List backends: return *RemoteError for every failure at the remote boundary
// - Services: wrap with fmt.Errorf("context: %w", err) when adding context
// - Handlers: map to apperrors.* via the error kind

// Operation names the remote call that failed.
type Operation string

const (
	OpFetchSchema Operation = "fetch_schema"
	OpCreateItem  Operation = "create_item"
	OpCurrentUser Operation = "current_user"
)

// ErrorKind distinguishes remote failures even though the user-facing text
// stays generic.
type ErrorKind string

const (
	KindNetwork       ErrorKind = "network"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindRejected      ErrorKind = "rejected"
)

// ErrIdentityUnsupported is returned by backends that cannot tell who the
// current user is.
var ErrIdentityUnsupported = errors.New("identity lookup not supported by list backend")

// RemoteError is a failure reported by (or while reaching) the target list.
type RemoteError struct {
	Op         Operation
	Kind       ErrorKind
	List       string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.List != "" {
		return fmt.Sprintf("%s %q: %s", e.Op, e.List, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// UserMessage is the text suitable for showing to the submitter.
func (e *RemoteError) UserMessage() string {
	if e.Message != "" {
		if msg := strings.TrimSpace(html.UnescapeString(serverTextPolicy.Sanitize(e.Message))); msg != "" {
			return msg
		}
	}
	switch e.Kind {
	case KindNetwork:
		return "The feedback list could not be reached."
	case KindAuthorization:
		return "Access to the feedback list was denied."
	case KindNotFound:
		return "The feedback list was not found."
	default:
		return "The feedback list rejected the submission."
	}
}

// IsSchemaFetchError reports whether err came from reading the list schema.
func IsSchemaFetchError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Op == OpFetchSchema
}

// IsCreateError reports whether err came from creating the list item.
func IsCreateError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Op == OpCreateItem
}

// KindOf returns the remote error kind, or "" for non-remote errors.
func KindOf(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// KindForStatus maps an HTTP status code to an error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case 401, 403:
		return KindAuthorization
	case 404:
		return KindNotFound
	case 502, 503, 504:
		return KindNetwork
	default:
		return KindRejected
	}
}

// IsNetworkError reports transport-level failures (DNS, refused, timeouts).
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
