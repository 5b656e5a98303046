package feedback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/google/uuid"
)

const (
	SuccessMessage     = "Thank you for your feedback!"
	ErrorMessagePrefix = "Error submitting feedback. "

	// fallbackFailureText is shown when the failure carries no text at all.
	fallbackFailureText = "Please try again later."
)

// ErrSubmissionInProgress is returned by Submit while another submission of
// the same form is still running.
var ErrSubmissionInProgress = errors.New("a submission is already in progress")

// ErrFormClosed is returned by Submit once the form has been closed.
var ErrFormClosed = errors.New("form is closed")

// Submitter performs the remote part of a submission: fetch the schema,
// resolve field names and create exactly one record.
type Submitter interface {
	Submit(ctx context.Context, draft types.FeedbackSubmission) (*types.SubmissionResult, error)
}

// userMessager is implemented by errors that carry text fit for the submitter.
type userMessager interface {
	UserMessage() string
}

// Form is one feedback form: the draft, the busy flag and the last message.
// It is safe for concurrent use; at most one submission runs at a time.
type Form struct {
	mu sync.Mutex

	id          string
	draft       types.FeedbackSubmission
	categories  []string
	submitter   Submitter
	submitting  bool
	closed      bool
	status      types.SubmissionStatus
	message     string
	messageType types.MessageType
	lastActive  time.Time
	now         func() time.Time
}

// Option configures a Form.
type Option func(*Form)

// WithID overrides the generated form id.
func WithID(id string) Option {
	return func(f *Form) { f.id = id }
}

// WithServiceCategories restricts the accepted service categories.
func WithServiceCategories(categories []string) Option {
	return func(f *Form) {
		if len(categories) > 0 {
			f.categories = append([]string(nil), categories...)
		}
	}
}

// WithClock replaces time.Now, used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

// NewForm returns an idle form with an empty draft.
func NewForm(submitter Submitter, opts ...Option) *Form {
	f := &Form{
		id:         uuid.NewString(),
		categories: DefaultServiceCategories,
		submitter:  submitter,
		status:     types.SubmissionStatusIdle,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.lastActive = f.now()
	return f
}

func (f *Form) ID() string {
	return f.id
}

// LastActive is the time of the last read or write on the form.
func (f *Form) LastActive() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive
}

// ServiceCategories returns the accepted service categories.
func (f *Form) ServiceCategories() []string {
	return append([]string(nil), f.categories...)
}

// SetIdentity prefills the non-editable name. Blank names are ignored so a
// failed lookup never clears an existing value.
func (f *Form) SetIdentity(name string) {
	if name == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.draft.Name = name
}

func (f *Form) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.draft.Email = email
}

// SetServiceCategory accepts one of the configured categories or "".
func (f *Form) SetServiceCategory(category string) error {
	if err := f.checkCategory(category); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.draft.ServiceCategory = category
	return nil
}

// SetRating accepts 0 (unrated) through MaxRating.
func (f *Form) SetRating(rating int) error {
	if err := checkRating(rating); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.draft.Rating = rating
	return nil
}

func (f *Form) SetComments(comments string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.draft.Comments = comments
}

// Apply sets every non-nil field of update. Nothing is changed if any field is
// rejected.
func (f *Form) Apply(update types.FormUpdate) error {
	if update.Name != nil {
		return invalidInput("name", "Name is taken from the signed-in user and cannot be changed.")
	}
	if update.ServiceCategory != nil {
		if err := f.checkCategory(*update.ServiceCategory); err != nil {
			return err
		}
	}
	if update.Rating != nil {
		if err := checkRating(*update.Rating); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if update.Email != nil {
		f.draft.Email = *update.Email
	}
	if update.ServiceCategory != nil {
		f.draft.ServiceCategory = *update.ServiceCategory
	}
	if update.Rating != nil {
		f.draft.Rating = *update.Rating
	}
	if update.Comments != nil {
		f.draft.Comments = *update.Comments
	}
	return nil
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() types.FeedbackSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// View returns a snapshot of the form for rendering.
func (f *Form) View() types.FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	return f.viewLocked()
}

// Submit validates the draft and, if it is valid, hands it to the submitter.
// The returned view reflects the final state. The error is
// ErrSubmissionInProgress, ErrFormClosed, a *ValidationError or the
// submitter's failure.
//
// Cancellation of ctx does not abort a submission that has started.
func (f *Form) Submit(ctx context.Context) (types.FormView, error) {
	f.mu.Lock()
	if f.closed {
		view := f.viewLocked()
		f.mu.Unlock()
		return view, ErrFormClosed
	}
	if f.submitting {
		view := f.viewLocked()
		f.mu.Unlock()
		return view, ErrSubmissionInProgress
	}
	f.touch()

	draft := f.draft
	if err := Validate(draft); err != nil {
		f.status = types.SubmissionStatusFailed
		f.message = err.Error()
		f.messageType = types.MessageTypeError
		view := f.viewLocked()
		f.mu.Unlock()
		return view, err
	}

	f.submitting = true
	f.status = types.SubmissionStatusSubmitting
	f.message = ""
	f.messageType = types.MessageTypeNone
	f.mu.Unlock()

	_, err := f.submitter.Submit(context.WithoutCancel(ctx), draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	f.touch()

	if err != nil {
		f.status = types.SubmissionStatusFailed
		f.message = ErrorMessagePrefix + failureText(err)
		f.messageType = types.MessageTypeError
		return f.viewLocked(), err
	}

	f.status = types.SubmissionStatusSucceeded
	f.message = SuccessMessage
	f.messageType = types.MessageTypeSuccess
	f.resetLocked()
	return f.viewLocked(), nil
}

// Close stops the form from accepting submissions. It fails while a
// submission is running.
func (f *Form) Close() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return false
	}
	f.closed = true
	return true
}

// CloseIdle closes the form if it has not been used since cutoff and no
// submission is running.
func (f *Form) CloseIdle(cutoff time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting || !f.lastActive.Before(cutoff) {
		return false
	}
	f.closed = true
	return true
}

// Reset clears the user-entered fields and the message. The name is kept.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.resetLocked()
	f.status = types.SubmissionStatusIdle
	f.message = ""
	f.messageType = types.MessageTypeNone
}

func (f *Form) resetLocked() {
	f.draft = types.FeedbackSubmission{Name: f.draft.Name}
}

func (f *Form) viewLocked() types.FormView {
	return types.FormView{
		ID:              f.id,
		Name:            f.draft.Name,
		Email:           f.draft.Email,
		ServiceCategory: f.draft.ServiceCategory,
		Rating:          f.draft.Rating,
		Comments:        f.draft.Comments,
		Submitting:      f.submitting,
		Status:          f.status,
		Message:         f.message,
		MessageType:     f.messageType,
	}
}

func (f *Form) touch() {
	f.lastActive = f.now()
}

func (f *Form) checkCategory(category string) error {
	if category == "" {
		return nil
	}
	for _, c := range f.categories {
		if c == category {
			return nil
		}
	}
	return invalidInput("serviceCategory", "Unknown service category: "+category)
}

func checkRating(rating int) error {
	if rating < 0 || rating > MaxRating {
		return invalidInput("rating", "Rating must be between 1 and 5.")
	}
	return nil
}

func failureText(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackFailureText
}
