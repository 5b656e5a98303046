package types

// FeedbackSubmission is the draft held by a feedback form. It never carries a
// persistence identity; the outgoing record is built from it at submit time.
type FeedbackSubmission struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	ServiceCategory string `json:"serviceCategory"`
	Rating          int    `json:"rating"`
	Comments        string `json:"comments"`
}

// MessageType classifies the message shown under the submit control.
type MessageType string

const (
	MessageTypeNone    MessageType = ""
	MessageTypeSuccess MessageType = "success"
	MessageTypeError   MessageType = "error"
	MessageTypeInfo    MessageType = "info"
)

// SubmissionStatus is the transient status of the last submission attempt.
type SubmissionStatus string

const (
	SubmissionStatusIdle       SubmissionStatus = "idle"
	SubmissionStatusSubmitting SubmissionStatus = "submitting"
	SubmissionStatusSucceeded  SubmissionStatus = "succeeded"
	SubmissionStatusFailed     SubmissionStatus = "failed"
)

// FieldDescriptor describes one column of the target list.
type FieldDescriptor struct {
	InternalName string `json:"InternalName"`
	Title        string `json:"Title,omitempty"`
}

// Record is the key/value payload written to (or returned by) the target list.
// Keys are internal field names resolved at runtime.
type Record map[string]interface{}

// Identity is the signed-in user as reported by the host or the list backend.
type Identity struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// FormView is the JSON representation of a form session.
type FormView struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	ServiceCategory string           `json:"serviceCategory"`
	Rating          int              `json:"rating"`
	Comments        string           `json:"comments"`
	Submitting      bool             `json:"submitting"`
	Status          SubmissionStatus `json:"status"`
	Message         string           `json:"message,omitempty"`
	MessageType     MessageType      `json:"messageType,omitempty"`
}

// FormUpdate carries the user-editable fields of a PATCH request. Nil fields
// are left untouched.
type FormUpdate struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	ServiceCategory *string `json:"serviceCategory,omitempty"`
	Rating          *int    `json:"rating,omitempty"`
	Comments        *string `json:"comments,omitempty"`
}

// FeedbackCreate is the body of the one-shot submit endpoint. Name is only
// used when neither the host nor the list backend can identify the user.
type FeedbackCreate struct {
	Name            string `json:"name,omitempty" binding:"max=255"`
	Email           string `json:"email" binding:"max=320"`
	ServiceCategory string `json:"serviceCategory" binding:"max=100"`
	Rating          int    `json:"rating"`
	Comments        string `json:"comments"`
}

// FormOptions lists the choices a client needs to render the form.
type FormOptions struct {
	ServiceCategories []string `json:"serviceCategories"`
	MinRating         int      `json:"minRating"`
	MaxRating         int      `json:"maxRating"`
	ListName          string   `json:"listName"`
}

// SubmissionResult describes a record successfully written to the list.
type SubmissionResult struct {
	ListName      string   `json:"listName"`
	Record        Record   `json:"record"`
	Created       Record   `json:"created,omitempty"`
	DroppedFields []string `json:"droppedFields,omitempty"`
}
