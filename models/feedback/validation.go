// Package feedback holds the feedback form: its draft state, the validation
// that gates submission, and the mapping of a draft onto whatever fields the
// target list happens to expose.
package feedback

import (
	"regexp"
	"strings"

	"github.com/NomadCrew/customer-feedback-portal/types"
)

const (
	MinRating = 1
	MaxRating = 5
)

// DefaultServiceCategories are the options offered by the service selector.
var DefaultServiceCategories = []string{
	"Web Hosting",
	"Network Security",
	"Cloud Storage",
	"Other",
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	missingFieldMessage = "Please fill all required fields: Name, Email, Service, and Rating (1-5)."
	invalidEmailMessage = "Please enter a valid email address."
)

// ValidationErrorKind identifies why a draft or an input was rejected.
type ValidationErrorKind string

const (
	MissingField ValidationErrorKind = "MISSING_FIELD"
	InvalidEmail ValidationErrorKind = "INVALID_EMAIL"
	// InvalidInput is raised by the setters for values the input widgets
	// would never produce (rating outside 0-5, unknown service, name edits).
	InvalidInput ValidationErrorKind = "INVALID_INPUT"
)

// ValidationError is returned by Validate and by the form setters.
type ValidationError struct {
	Kind    ValidationErrorKind
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches on Kind so callers can use errors.Is(err, ErrMissingField).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingField = &ValidationError{Kind: MissingField, Message: missingFieldMessage}
	ErrInvalidEmail = &ValidationError{Kind: InvalidEmail, Message: invalidEmailMessage}
	ErrInvalidInput = &ValidationError{Kind: InvalidInput, Message: "invalid input"}
)

// IsValidEmail applies the basic syntactic check used by the form.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Validate checks a draft snapshot. It has no side effects.
func Validate(draft types.FeedbackSubmission) error {
	var missing []string
	if strings.TrimSpace(draft.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(draft.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(draft.ServiceCategory) == "" {
		missing = append(missing, "serviceCategory")
	}
	if draft.Rating < MinRating {
		missing = append(missing, "rating")
	}
	if len(missing) > 0 {
		return &ValidationError{Kind: MissingField, Message: missingFieldMessage, Fields: missing}
	}

	if !IsValidEmail(strings.TrimSpace(draft.Email)) {
		return &ValidationError{Kind: InvalidEmail, Message: invalidEmailMessage, Fields: []string{"email"}}
	}

	return nil
}

func invalidInput(field, message string) *ValidationError {
	return &ValidationError{Kind: InvalidInput, Message: message, Fields: []string{field}}
}
