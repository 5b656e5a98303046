package services

import (
	"sync"
	"time"

	apperrors "github.com/NomadCrew/customer-feedback-portal/errors"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/models/feedback"
)

const DefaultFormSessionTTL = 30 * time.Minute

// FormRegistry keeps the open form sessions of the HTTP surface. Idle sessions
// expire after the configured TTL and are pruned lazily.
type FormRegistry struct {
	mu         sync.Mutex
	forms      map[string]*feedback.Form
	submitter  feedback.Submitter
	categories []string
	ttl        time.Duration
	now        func() time.Time
}

func NewFormRegistry(submitter feedback.Submitter, categories []string, ttl time.Duration) *FormRegistry {
	if ttl <= 0 {
		ttl = DefaultFormSessionTTL
	}
	return &FormRegistry{
		forms:      make(map[string]*feedback.Form),
		submitter:  submitter,
		categories: categories,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Open creates a new form session with the given display name.
func (r *FormRegistry) Open(displayName string) *feedback.Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	opts := []feedback.Option{feedback.WithClock(r.now)}
	if len(r.categories) > 0 {
		opts = append(opts, feedback.WithServiceCategories(r.categories))
	}
	form := feedback.NewForm(r.submitter, opts...)
	form.SetIdentity(displayName)
	r.forms[form.ID()] = form

	logger.GetLogger().Debugw("Opened form session", "formID", form.ID(), "open", len(r.forms))
	return form
}

func (r *FormRegistry) Get(id string) (*feedback.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	form, ok := r.forms[id]
	if !ok {
		return nil, apperrors.NotFound("Form", id)
	}
	return form, nil
}

// Delete closes and discards a session. A session with a submission in
// flight is kept.
func (r *FormRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	form, ok := r.forms[id]
	if !ok {
		return apperrors.NotFound("Form", id)
	}
	if !form.Close() {
		return apperrors.Conflict("Form is submitting", "wait for the submission to finish before closing the form")
	}
	delete(r.forms, id)
	return nil
}

// Len returns the number of live sessions.
func (r *FormRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	return len(r.forms)
}

func (r *FormRegistry) pruneLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, form := range r.forms {
		if form.CloseIdle(cutoff) {
			delete(r.forms, id)
		}
	}
}
