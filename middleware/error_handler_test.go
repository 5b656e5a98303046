package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/NomadCrew/customer-feedback-portal/errors"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name               string
		err                error
		ginErrorType       gin.ErrorType
		expectedStatusCode int
		expectedBody       map[string]any
	}{
		{
			name:               "Validation AppError keeps details",
			err:                apperrors.ValidationFailed("Please enter a valid email address.", "email"),
			ginErrorType:       gin.ErrorTypePrivate,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody: map[string]any{
				"type":    string(apperrors.ValidationError),
				"message": "Please enter a valid email address.",
				"code":    "400",
				"details": "email",
			},
		},
		{
			name: "Remote list failure hides raw error",
			err: apperrors.RemoteListFailed(apperrors.ListAccessDeniedError, "Access denied.",
				&store.RemoteError{Op: store.OpCreateItem, Kind: store.KindAuthorization, StatusCode: 403}),
			ginErrorType:       gin.ErrorTypePrivate,
			expectedStatusCode: http.StatusBadGateway,
			expectedBody: map[string]any{
				"type":    string(apperrors.ListAccessDeniedError),
				"message": "Access denied.",
				"code":    "502",
			},
		},
		{
			name:               "Rate limit",
			err:                apperrors.RateLimitExceeded("Too many submissions.", 30),
			ginErrorType:       gin.ErrorTypePrivate,
			expectedStatusCode: http.StatusTooManyRequests,
			expectedBody: map[string]any{
				"type":    string(apperrors.RateLimitError),
				"message": "Too many submissions.",
				"code":    "429",
				"details": "retry after 30 seconds",
			},
		},
		{
			name:               "Binding error",
			err:                errors.New("json: cannot unmarshal string"),
			ginErrorType:       gin.ErrorTypeBind,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody: map[string]any{
				"type":    string(apperrors.ValidationError),
				"message": "Failed to bind request",
				"code":    "400",
			},
		},
		{
			name:               "Unknown error",
			err:                errors.New("boom"),
			ginErrorType:       gin.ErrorTypePrivate,
			expectedStatusCode: http.StatusInternalServerError,
			expectedBody: map[string]any{
				"type":    string(apperrors.ServerError),
				"message": "Internal Server Error",
				"code":    "500",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorHandler())
			router.GET("/test", func(c *gin.Context) {
				_ = c.Error(tc.err).SetType(tc.ginErrorType)
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatusCode, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.expectedBody, body)
		})
	}
}

func TestErrorHandler_NoErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ok", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}
