package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestKindOf_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewDuplicateReviewError())

	assert.Equal(t, KindDuplicateReview, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
}

func TestFieldOf(t *testing.T) {
	err := NewValidationError("comment", ReviewTooShort, "comment must be at least 10 characters")
	assert.Equal(t, "comment", FieldOf(err))
	assert.Equal(t, "", FieldOf(NewNotFoundError(ReviewNotFound, "review not found")))
}

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"translated", gorm.ErrDuplicatedKey, true},
		{"postgres", fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_reviews_business_user" (SQLSTATE 23505)`), true},
		{"sqlite", fmt.Errorf("UNIQUE constraint failed: reviews.business_id, reviews.user_id"), true},
		{"other", fmt.Errorf("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKeyError(tt.err))
		})
	}
}

func TestParseError(t *testing.T) {
	info := ParseError(gorm.ErrRecordNotFound, "get review")
	assert.Equal(t, ResourceNotFound, info.Code)
	assert.Equal(t, "review not found", info.Message)

	info = ParseError(fmt.Errorf(`duplicate key value violates unique constraint "idx_reviews_business_user" on reviews (business_id, user_id)`), "submit review")
	assert.Equal(t, ReviewAlreadyExists, info.Code)

	info = ParseError(fmt.Errorf("dial tcp: connection refused"), "submit review")
	assert.Equal(t, InternalDatabaseError, info.Code)
}

func TestRespondWithAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   Kind
		wantCode   string
	}{
		{"validation", NewValidationError("rating", ReviewInvalidRating, "rating must be between 1 and 5"), http.StatusBadRequest, KindValidation, ReviewInvalidRating},
		{"duplicate", NewDuplicateReviewError(), http.StatusConflict, KindDuplicateReview, ReviewAlreadyExists},
		{"not found", NewNotFoundError(ReviewNotFound, "review not found"), http.StatusNotFound, KindNotFound, ReviewNotFound},
		{"unauthorized", NewUnauthorizedError(AuthzModeratorOnly, "moderators only"), http.StatusForbidden, KindUnauthorized, AuthzModeratorOnly},
		{"storage", NewStorageError(fmt.Errorf("connection refused"), "submit review"), http.StatusInternalServerError, KindStorage, InternalDatabaseError},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, KindStorage, InternalDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondWithAppError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.Equal(t, tt.wantCode, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}
