package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/NomadCrew/customer-feedback-portal/errors"
	"github.com/NomadCrew/customer-feedback-portal/middleware"
	"github.com/NomadCrew/customer-feedback-portal/models/feedback"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/gin-gonic/gin"
)

// FeedbackHandler serves the form session and one-shot submit endpoints.
type FeedbackHandler struct {
	forms      FormSessions
	submitter  feedback.Submitter
	identity   DisplayNameResolver
	listName   string
	categories []string
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(forms FormSessions, submitter feedback.Submitter, identity DisplayNameResolver, listName string, categories []string) *FeedbackHandler {
	if len(categories) == 0 {
		categories = feedback.DefaultServiceCategories
	}
	return &FeedbackHandler{
		forms:      forms,
		submitter:  submitter,
		identity:   identity,
		listName:   listName,
		categories: categories,
	}
}

// OpenForm godoc
// @Summary      Open a feedback form
// @Description  Creates a form session prefilled with the signed-in user's name
// @Tags         forms
// @Produce      json
// @Success      201  {object}  types.FormView
// @Failure      401  {object}  types.ErrorResponse
// @Router       /forms [post]
func (h *FeedbackHandler) OpenForm(c *gin.Context) {
	name := h.identity.DisplayName(c.Request.Context(), middleware.DisplayName(c))
	form := h.forms.Open(name)
	c.JSON(http.StatusCreated, form.View())
}

// GetForm godoc
// @Summary      Get a feedback form
// @Tags         forms
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      200  {object}  types.FormView
// @Failure      404  {object}  types.ErrorResponse
// @Router       /forms/{id} [get]
func (h *FeedbackHandler) GetForm(c *gin.Context) {
	form, err := h.forms.Get(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, form.View())
}

// UpdateForm godoc
// @Summary      Edit a feedback form
// @Description  Updates email, service category, rating or comments. The name cannot be changed.
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Form ID"
// @Param        body  body      types.FormUpdate  true  "Fields to change"
// @Success      200   {object}  types.FormView
// @Failure      400   {object}  types.ErrorResponse
// @Failure      404   {object}  types.ErrorResponse
// @Router       /forms/{id} [patch]
func (h *FeedbackHandler) UpdateForm(c *gin.Context) {
	form, err := h.forms.Get(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	var update types.FormUpdate
	if !bindJSONOrError(c, &update) {
		return
	}

	if err := form.Apply(update); err != nil {
		_ = c.Error(validationError(err))
		return
	}
	c.JSON(http.StatusOK, form.View())
}

// SubmitForm godoc
// @Summary      Submit a feedback form
// @Description  Validates and submits the draft. The view's message and messageType describe the outcome.
// @Tags         forms
// @Produce      json
// @Param        id   path      string  true  "Form ID"
// @Success      200  {object}  types.FormView
// @Failure      404  {object}  types.ErrorResponse
// @Failure      409  {object}  types.ErrorResponse
// @Failure      429  {object}  types.ErrorResponse
// @Router       /forms/{id}/submit [post]
func (h *FeedbackHandler) SubmitForm(c *gin.Context) {
	form, err := h.forms.Get(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	view, err := form.Submit(c.Request.Context())
	if stderrors.Is(err, feedback.ErrSubmissionInProgress) {
		_ = c.Error(errors.Conflict("Submission in progress", err.Error()))
		return
	}
	if stderrors.Is(err, feedback.ErrFormClosed) {
		_ = c.Error(errors.NotFound("Form", c.Param("id")))
		return
	}
	// Validation and remote failures are reported through the view.
	c.JSON(http.StatusOK, view)
}

// CloseForm godoc
// @Summary      Discard a feedback form
// @Tags         forms
// @Param        id   path  string  true  "Form ID"
// @Success      204
// @Failure      404  {object}  types.ErrorResponse
// @Failure      409  {object}  types.ErrorResponse
// @Router       /forms/{id} [delete]
func (h *FeedbackHandler) CloseForm(c *gin.Context) {
	if err := h.forms.Delete(c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetOptions godoc
// @Summary      Form options
// @Description  Service categories and rating bounds used to render the form
// @Tags         forms
// @Produce      json
// @Success      200  {object}  types.FormOptions
// @Router       /forms/options [get]
func (h *FeedbackHandler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, types.FormOptions{
		ServiceCategories: h.categories,
		MinRating:         feedback.MinRating,
		MaxRating:         feedback.MaxRating,
		ListName:          h.listName,
	})
}

// SubmitFeedback godoc
// @Summary      Submit feedback
// @Description  Stateless submit of a complete draft
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        body  body      types.FeedbackCreate  true  "Feedback payload"
// @Success      201   {object}  types.FeedbackResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      429   {object}  types.ErrorResponse
// @Failure      502   {object}  types.ErrorResponse
// @Router       /feedback [post]
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var req types.FeedbackCreate
	if !bindJSONOrError(c, &req) {
		return
	}

	name := h.identity.DisplayName(c.Request.Context(), middleware.DisplayName(c))
	if name == "" {
		name = strings.TrimSpace(req.Name)
	}

	// The setters enforce the same input rules as the session endpoints.
	form := feedback.NewForm(h.submitter, feedback.WithServiceCategories(h.categories))
	form.SetIdentity(name)
	if err := form.Apply(types.FormUpdate{
		Email:           &req.Email,
		ServiceCategory: &req.ServiceCategory,
		Rating:          &req.Rating,
		Comments:        &req.Comments,
	}); err != nil {
		_ = c.Error(validationError(err))
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), form.Draft())
	if err != nil {
		_ = c.Error(submissionError(err))
		return
	}

	c.JSON(http.StatusCreated, types.FeedbackResponse{
		Status:        "success",
		Message:       feedback.SuccessMessage,
		ListName:      result.ListName,
		DroppedFields: result.DroppedFields,
	})
}

func bindJSONOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(errors.ValidationFailed("invalid_request_payload", err.Error()))
		return false
	}
	return true
}

func validationError(err error) error {
	var verr *feedback.ValidationError
	if stderrors.As(err, &verr) {
		return errors.ValidationFailed(verr.Message, strings.Join(verr.Fields, ","))
	}
	return err
}

// submissionError maps a submitter failure onto the API error it is shown as.
func submissionError(err error) error {
	var verr *feedback.ValidationError
	if stderrors.As(err, &verr) {
		return validationError(err)
	}

	var remote *store.RemoteError
	if !stderrors.As(err, &remote) {
		return errors.Wrap(err, errors.ServerError, "Failed to submit feedback")
	}

	message := feedback.ErrorMessagePrefix + remote.UserMessage()
	switch remote.Kind {
	case store.KindNetwork:
		return errors.RemoteListFailed(errors.ListUnavailableError, message, err)
	case store.KindAuthorization:
		return errors.RemoteListFailed(errors.ListAccessDeniedError, message, err)
	case store.KindNotFound:
		return errors.RemoteListFailed(errors.ListNotFoundError, message, err)
	default:
		return errors.RemoteListFailed(errors.ListRejectedError, message, err)
	}
}
