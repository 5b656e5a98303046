package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/middleware"
	"github.com/NomadCrew/customer-feedback-portal/models/feedback"
	"github.com/NomadCrew/customer-feedback-portal/services"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type feedbackTestEnv struct {
	router    *gin.Engine
	forms     *services.FormRegistry
	submitter feedback.Submitter
	identity  *MockIdentityResolver
}

func setupFeedbackRouter(t *testing.T, submitter feedback.Submitter) *feedbackTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	forms := services.NewFormRegistry(submitter, nil, time.Hour)
	identity := new(MockIdentityResolver)
	h := NewFeedbackHandler(forms, submitter, identity, "cloudlist", nil)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	v1 := router.Group("/v1")
	v1.POST("/forms", h.OpenForm)
	v1.GET("/forms/options", h.GetOptions)
	v1.GET("/forms/:id", h.GetForm)
	v1.PATCH("/forms/:id", h.UpdateForm)
	v1.POST("/forms/:id/submit", h.SubmitForm)
	v1.DELETE("/forms/:id", h.CloseForm)
	v1.POST("/feedback", h.SubmitFeedback)

	return &feedbackTestEnv{router: router, forms: forms, submitter: submitter, identity: identity}
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) types.FormView {
	t.Helper()
	var view types.FormView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func openForm(t *testing.T, env *feedbackTestEnv, name string) types.FormView {
	t.Helper()
	env.identity.On("DisplayName", mock.Anything, "").Return(name).Once()
	w := doJSON(env.router, http.MethodPost, "/v1/forms", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeView(t, w)
}

func fillForm(t *testing.T, env *feedbackTestEnv, id string) {
	t.Helper()
	w := doJSON(env.router, http.MethodPatch, "/v1/forms/"+id, map[string]interface{}{
		"email":           "jane@x.com",
		"serviceCategory": "Cloud Storage",
		"rating":          4,
		"comments":        "Great",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestFeedbackHandler_OpenFormPrefillsName(t *testing.T) {
	env := setupFeedbackRouter(t, new(MockSubmitter))

	view := openForm(t, env, "Jane Doe")
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Jane Doe", view.Name)
	assert.Equal(t, types.SubmissionStatusIdle, view.Status)
	assert.False(t, view.Submitting)
}

func TestFeedbackHandler_GetUnknownForm(t *testing.T) {
	env := setupFeedbackRouter(t, new(MockSubmitter))

	w := doJSON(env.router, http.MethodGet, "/v1/forms/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackHandler_UpdateForm(t *testing.T) {
	env := setupFeedbackRouter(t, new(MockSubmitter))
	view := openForm(t, env, "Jane Doe")

	fillForm(t, env, view.ID)

	w := doJSON(env.router, http.MethodGet, "/v1/forms/"+view.ID, nil)
	got := decodeView(t, w)
	assert.Equal(t, "jane@x.com", got.Email)
	assert.Equal(t, "Cloud Storage", got.ServiceCategory)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "Great", got.Comments)
}

func TestFeedbackHandler_UpdateFormRejectsInvalidInput(t *testing.T) {
	env := setupFeedbackRouter(t, new(MockSubmitter))
	view := openForm(t, env, "Jane Doe")

	testCases := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "name is read-only", body: map[string]interface{}{"name": "Mallory"}},
		{name: "rating out of range", body: map[string]interface{}{"rating": 9}},
		{name: "unknown service", body: map[string]interface{}{"serviceCategory": "Catering"}},
		{name: "malformed body", body: map[string]interface{}{"rating": "five"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(env.router, http.MethodPatch, "/v1/forms/"+view.ID, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	got := decodeView(t, doJSON(env.router, http.MethodGet, "/v1/forms/"+view.ID, nil))
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Zero(t, got.Rating)
}

func TestFeedbackHandler_SubmitFormSuccessResets(t *testing.T) {
	submitter := new(MockSubmitter)
	env := setupFeedbackRouter(t, submitter)
	view := openForm(t, env, "Jane Doe")
	fillForm(t, env, view.ID)

	submitter.On("Submit", mock.Anything, types.FeedbackSubmission{
		Name:            "Jane Doe",
		Email:           "jane@x.com",
		ServiceCategory: "Cloud Storage",
		Rating:          4,
		Comments:        "Great",
	}).Return(&types.SubmissionResult{ListName: "cloudlist"}, nil).Once()

	w := doJSON(env.router, http.MethodPost, "/v1/forms/"+view.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeView(t, w)
	assert.Equal(t, feedback.SuccessMessage, got.Message)
	assert.Equal(t, types.MessageTypeSuccess, got.MessageType)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Empty(t, got.Email)
	assert.Zero(t, got.Rating)
	submitter.AssertExpectations(t)
}

func TestFeedbackHandler_SubmitFormValidationMessage(t *testing.T) {
	submitter := new(MockSubmitter)
	env := setupFeedbackRouter(t, submitter)
	view := openForm(t, env, "Jane Doe")

	w := doJSON(env.router, http.MethodPost, "/v1/forms/"+view.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeView(t, w)
	assert.Equal(t, types.MessageTypeError, got.MessageType)
	assert.Contains(t, got.Message, "Please fill all required fields")
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestFeedbackHandler_SubmitFormRemoteFailureKeepsDraft(t *testing.T) {
	submitter := new(MockSubmitter)
	env := setupFeedbackRouter(t, submitter)
	view := openForm(t, env, "Jane Doe")
	fillForm(t, env, view.ID)

	submitter.On("Submit", mock.Anything, mock.Anything).
		Return(nil, &store.RemoteError{Op: store.OpCreateItem, Kind: store.KindAuthorization, Message: "Access denied."}).Once()

	w := doJSON(env.router, http.MethodPost, "/v1/forms/"+view.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeView(t, w)
	assert.Equal(t, "Error submitting feedback. Access denied.", got.Message)
	assert.Equal(t, types.MessageTypeError, got.MessageType)
	assert.Equal(t, "jane@x.com", got.Email)
}

func TestFeedbackHandler_SubmitFormConflictWhileInFlight(t *testing.T) {
	gate := newGateSubmitter()
	env := setupFeedbackRouter(t, gate)
	view := openForm(t, env, "Jane Doe")
	fillForm(t, env, view.ID)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- doJSON(env.router, http.MethodPost, "/v1/forms/"+view.ID+"/submit", nil)
	}()
	<-gate.started

	w := doJSON(env.router, http.MethodPost, "/v1/forms/"+view.ID+"/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(env.router, http.MethodDelete, "/v1/forms/"+view.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(gate.release)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, feedback.SuccessMessage, decodeView(t, first).Message)
}

func TestFeedbackHandler_CloseForm(t *testing.T) {
	env := setupFeedbackRouter(t, new(MockSubmitter))
	view := openForm(t, env, "")

	w := doJSON(env.router, http.MethodDelete, "/v1/forms/"+view.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(env.router, http.MethodGet, "/v1/forms/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackHandler_GetOptions(t *testing.T) {
	env := setupFeedbackRouter(t, new(MockSubmitter))

	w := doJSON(env.router, http.MethodGet, "/v1/forms/options", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var opts types.FormOptions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, feedback.DefaultServiceCategories, opts.ServiceCategories)
	assert.Equal(t, 1, opts.MinRating)
	assert.Equal(t, 5, opts.MaxRating)
	assert.Equal(t, "cloudlist", opts.ListName)
}

func TestFeedbackHandler_SubmitFeedback(t *testing.T) {
	validBody := map[string]interface{}{
		"name":            "Jane Doe",
		"email":           "jane@x.com",
		"serviceCategory": "Web Hosting",
		"rating":          5,
		"comments":        "Fast",
	}

	testCases := []struct {
		name         string
		body         map[string]interface{}
		setupMock    func(*MockSubmitter)
		expectedCode int
		expectedType string
	}{
		{
			name: "created",
			body: validBody,
			setupMock: func(m *MockSubmitter) {
				m.On("Submit", mock.Anything, mock.MatchedBy(func(d types.FeedbackSubmission) bool {
					return d.Name == "Jane Doe" && d.Rating == 5
				})).Return(&types.SubmissionResult{ListName: "cloudlist", DroppedFields: []string{"Service"}}, nil).Once()
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "missing fields",
			body: map[string]interface{}{"name": "Jane Doe", "email": "jane@x.com"},
			setupMock: func(m *MockSubmitter) {
				m.On("Submit", mock.Anything, mock.Anything).Return(nil, feedback.ErrMissingField).Once()
			},
			expectedCode: http.StatusBadRequest,
			expectedType: "VALIDATION_ERROR",
		},
		{
			name:         "rating out of range",
			body:         map[string]interface{}{"name": "Jane", "email": "jane@x.com", "serviceCategory": "Other", "rating": 7},
			expectedCode: http.StatusBadRequest,
			expectedType: "VALIDATION_ERROR",
		},
		{
			name: "list not found",
			body: validBody,
			setupMock: func(m *MockSubmitter) {
				m.On("Submit", mock.Anything, mock.Anything).
					Return(nil, &store.RemoteError{Op: store.OpFetchSchema, Kind: store.KindNotFound}).Once()
			},
			expectedCode: http.StatusBadGateway,
			expectedType: "LIST_NOT_FOUND",
		},
		{
			name: "list unreachable",
			body: validBody,
			setupMock: func(m *MockSubmitter) {
				m.On("Submit", mock.Anything, mock.Anything).
					Return(nil, &store.RemoteError{Op: store.OpFetchSchema, Kind: store.KindNetwork}).Once()
			},
			expectedCode: http.StatusBadGateway,
			expectedType: "LIST_UNAVAILABLE",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			submitter := new(MockSubmitter)
			if tc.setupMock != nil {
				tc.setupMock(submitter)
			}
			env := setupFeedbackRouter(t, submitter)
			env.identity.On("DisplayName", mock.Anything, "").Return("").Maybe()

			w := doJSON(env.router, http.MethodPost, "/v1/feedback", tc.body)
			assert.Equal(t, tc.expectedCode, w.Code, w.Body.String())

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tc.expectedType != "" {
				assert.Equal(t, tc.expectedType, body["type"])
			} else {
				assert.Equal(t, feedback.SuccessMessage, body["message"])
				assert.Equal(t, "cloudlist", body["listName"])
			}
			submitter.AssertExpectations(t)
		})
	}
}

func TestFeedbackHandler_SubmitFeedbackUsesBackendIdentity(t *testing.T) {
	submitter := new(MockSubmitter)
	env := setupFeedbackRouter(t, submitter)

	env.identity.On("DisplayName", mock.Anything, "").Return("Backend User").Once()
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(d types.FeedbackSubmission) bool {
		return d.Name == "Backend User"
	})).Return(&types.SubmissionResult{ListName: "cloudlist"}, nil).Once()

	w := doJSON(env.router, http.MethodPost, "/v1/feedback", map[string]interface{}{
		"email":           "jane@x.com",
		"serviceCategory": "Other",
		"rating":          3,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	env.identity.AssertExpectations(t)
}

func TestFeedbackHandler_SubmitFeedbackIgnoresNameWhenUserIsKnown(t *testing.T) {
	submitter := new(MockSubmitter)
	env := setupFeedbackRouter(t, submitter)

	env.identity.On("DisplayName", mock.Anything, "").Return("Backend User").Once()
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(d types.FeedbackSubmission) bool {
		return d.Name == "Backend User"
	})).Return(&types.SubmissionResult{ListName: "cloudlist"}, nil).Once()

	w := doJSON(env.router, http.MethodPost, "/v1/feedback", map[string]interface{}{
		"name":            "Someone Else",
		"email":           "jane@x.com",
		"serviceCategory": "Other",
		"rating":          3,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submitter.AssertExpectations(t)
	env.identity.AssertExpectations(t)
}
