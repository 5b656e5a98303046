package feedback

import (
	"errors"
	"testing"

	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() types.FeedbackSubmission {
	return types.FeedbackSubmission{
		Name:            "Jane",
		Email:           "jane@x.com",
		ServiceCategory: "Cloud Storage",
		Rating:          4,
		Comments:        "Great",
	}
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.FeedbackSubmission)
		missing []string
	}{
		{"empty name", func(d *types.FeedbackSubmission) { d.Name = "" }, []string{"name"}},
		{"blank name", func(d *types.FeedbackSubmission) { d.Name = "   " }, []string{"name"}},
		{"empty email", func(d *types.FeedbackSubmission) { d.Email = "" }, []string{"email"}},
		{"empty service", func(d *types.FeedbackSubmission) { d.ServiceCategory = "" }, []string{"serviceCategory"}},
		{"unrated", func(d *types.FeedbackSubmission) { d.Rating = 0 }, []string{"rating"}},
		{"everything", func(d *types.FeedbackSubmission) { *d = types.FeedbackSubmission{} }, []string{"name", "email", "serviceCategory", "rating"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)

			err := Validate(draft)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, MissingField, verr.Kind)
			assert.Equal(t, tt.missing, verr.Fields)
			assert.Equal(t, "Please fill all required fields: Name, Email, Service, and Rating (1-5).", verr.Message)
			assert.True(t, errors.Is(err, ErrMissingField))
		})
	}
}

func TestValidate_MissingFieldWinsOverInvalidEmail(t *testing.T) {
	draft := validDraft()
	draft.Email = "not-an-email"
	draft.Rating = 0

	err := Validate(draft)
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.False(t, errors.Is(err, ErrInvalidEmail))
}

func TestValidate_InvalidEmail(t *testing.T) {
	for _, email := range []string{"a@b", "abc.com", "@b.com", "a b@c.com", "a@b@c.com", "jane@.com x"} {
		t.Run(email, func(t *testing.T) {
			draft := validDraft()
			draft.Email = email

			err := Validate(draft)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEmail))
			assert.Equal(t, "Please enter a valid email address.", err.Error())
		})
	}
}

func TestValidate_AcceptsValidDrafts(t *testing.T) {
	draft := validDraft()
	assert.NoError(t, Validate(draft))

	draft.Email = "  jane@x.com  "
	draft.Comments = ""
	assert.NoError(t, Validate(draft))
}

func TestValidate_IsPure(t *testing.T) {
	drafts := []types.FeedbackSubmission{
		validDraft(),
		{Name: "Jane", Email: "a@b", ServiceCategory: "Other", Rating: 3},
		{},
	}

	for _, draft := range drafts {
		first := Validate(draft)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Validate(draft))
		}
	}
}
