package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewController_SubmitReview(t *testing.T) {
	env := setupControllerTest(t)
	reviewer := env.createUser(t, model.RoleUser)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/businesses/%d/reviews", env.business.ID), reviewer, gin.H{
		"rating":  5,
		"comment": "Fresh bread every morning, friendly staff!!",
		"photos": []gin.H{
			{"url": "https://cdn.example.com/reviews/1.jpg", "content_type": "image/jpeg", "size_bytes": 2048},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Review model.Review `json:"review"`
	}
	decode(t, w, &resp)
	assert.Equal(t, model.ReviewStatusPending, resp.Review.Status)
	assert.NotContains(t, w.Body.String(), "spam_score")
	assert.Equal(t, reviewer.ID, resp.Review.UserID)
	require.Len(t, resp.Review.Photos, 1)
}

func TestReviewController_SubmitReview_Duplicate(t *testing.T) {
	env := setupControllerTest(t)
	reviewer := env.createUser(t, model.RoleUser)
	env.submitReview(t, reviewer, 4, "Good coffee and a quiet corner to work")

	w := env.do(t, http.MethodPost, fmt.Sprintf("/businesses/%d/reviews", env.business.ID), reviewer, gin.H{
		"rating":  2,
		"comment": "Changed my mind about this place",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, apperrors.ReviewAlreadyExists, resp.Error)
	assert.Equal(t, apperrors.KindDuplicateReview, resp.Kind)
}

func TestReviewController_SubmitReview_ValidationFields(t *testing.T) {
	env := setupControllerTest(t)
	reviewer := env.createUser(t, model.RoleUser)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/businesses/%d/reviews", env.business.ID), reviewer, gin.H{
		"rating":  6,
		"comment": "too short",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, apperrors.KindValidation, resp.Kind)
	assert.Equal(t, apperrors.ReviewInvalidRating, resp.Error)
	assert.Contains(t, resp.Fields, "rating")
	assert.Contains(t, resp.Fields, "comment")
}

func TestReviewController_SubmitReview_Errors(t *testing.T) {
	env := setupControllerTest(t)
	reviewer := env.createUser(t, model.RoleUser)
	valid := gin.H{"rating": 4, "comment": "Lovely staff and fair prices"}

	tests := []struct {
		name   string
		path   string
		user   *model.User
		body   interface{}
		status int
		code   string
	}{
		{"anonymous", fmt.Sprintf("/businesses/%d/reviews", env.business.ID), nil, valid, http.StatusUnauthorized, apperrors.AuthUnauthorized},
		{"invalid id", "/businesses/abc/reviews", reviewer, valid, http.StatusBadRequest, apperrors.ValidationInvalidID},
		{"unknown business", "/businesses/9999/reviews", reviewer, valid, http.StatusNotFound, apperrors.BusinessNotFound},
		{"malformed body", fmt.Sprintf("/businesses/%d/reviews", env.business.ID), reviewer, "not an object", http.StatusBadRequest, apperrors.ValidationInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Error)
		})
	}
}

func TestReviewController_PublicListingShowsApprovedOnly(t *testing.T) {
	env := setupControllerTest(t)
	approvedID := env.submitReview(t, env.createUser(t, model.RoleUser), 5, "Excellent pastries and warm service")
	env.submitReview(t, env.createUser(t, model.RoleUser), 3, "Average experience overall this time")

	w := env.do(t, http.MethodPost, fmt.Sprintf("/admin/reviews/%d/moderate", approvedID), env.moderator, gin.H{"action": "approve"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, fmt.Sprintf("/businesses/%d/reviews", env.business.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Data  []model.Review `json:"data"`
		Total int64          `json:"total"`
		Page  int            `json:"page"`
	}
	decode(t, w, &page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, approvedID, page.Data[0].ID)
}

func TestReviewController_GetBusinessSummary(t *testing.T) {
	env := setupControllerTest(t)
	first := env.submitReview(t, env.createUser(t, model.RoleUser), 5, "Excellent pastries and warm service")
	env.submitReview(t, env.createUser(t, model.RoleUser), 1, "Bread was stale and the line was long")
	env.submitReview(t, env.createUser(t, model.RoleUser), 5, "BUY NOW BUY NOW BUY NOW LIMITED TIME OFFER!!!")
	env.do(t, http.MethodPost, fmt.Sprintf("/admin/reviews/%d/moderate", first), env.moderator, gin.H{"action": "approve"})

	// status and rating_basis are ignored on the public route
	for _, query := range []string{"", "?rating_basis=filtered", "?status=pending,flagged", "?status=archived"} {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/businesses/%d/reviews/summary%s", env.business.ID, query), nil, nil)
		require.Equal(t, http.StatusOK, w.Code, query)

		var resp struct {
			Summary publicSummary `json:"summary"`
		}
		decode(t, w, &resp)
		assert.Equal(t, env.business.ID, resp.Summary.BusinessID)
		assert.Equal(t, int64(1), resp.Summary.ReviewCount, query)
		assert.InDelta(t, 5.0, resp.Summary.AverageRating, 1e-9)

		body := w.Body.String()
		for _, field := range []string{"average_spam_score", "pending_count", "flagged_count", "rejected_count", "total_reviews"} {
			assert.NotContains(t, body, field, query)
		}
	}
}

func TestReviewController_PublicViewsHideModerationFields(t *testing.T) {
	env := setupControllerTest(t)
	author := env.createUser(t, model.RoleUser)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/businesses/%d/reviews", env.business.ID), author, gin.H{
		"rating":  5,
		"comment": "BUY NOW BUY NOW BUY NOW LIMITED TIME OFFER!!!",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "spam_score")
	assert.NotContains(t, w.Body.String(), "flag_reason")

	var created struct {
		Review model.Review `json:"review"`
	}
	decode(t, w, &created)
	require.Equal(t, model.ReviewStatusFlagged, created.Review.Status)
	id := created.Review.ID

	w = env.do(t, http.MethodPost, fmt.Sprintf("/admin/reviews/%d/moderate", id), env.moderator, gin.H{"action": "approve"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	views := []struct {
		name   string
		path   string
		viewer *model.User
	}{
		{"listing", fmt.Sprintf("/businesses/%d/reviews", env.business.ID), nil},
		{"detail", fmt.Sprintf("/reviews/%d", id), nil},
		{"my reviews", "/users/me/reviews", author},
	}
	for _, v := range views {
		w := env.do(t, http.MethodGet, v.path, v.viewer, nil)
		require.Equal(t, http.StatusOK, w.Code, v.name)

		body := w.Body.String()
		assert.Contains(t, body, author.Nickname, v.name)
		assert.NotContains(t, body, "spam_score", v.name)
		assert.NotContains(t, body, "flag_reason", v.name)
		assert.NotContains(t, body, author.Email, v.name)
		assert.NotContains(t, body, author.Name, v.name)
	}

	w = env.do(t, http.MethodGet, fmt.Sprintf("/reviews/%d", id), env.moderator, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var moderated struct {
		Review moderationReview `json:"review"`
	}
	decode(t, w, &moderated)
	assert.InDelta(t, 1.0, moderated.Review.SpamScore, 1e-9)
	assert.NotContains(t, w.Body.String(), author.Email)
}

func TestReviewController_GetReviewVisibility(t *testing.T) {
	env := setupControllerTest(t)
	author := env.createUser(t, model.RoleUser)
	id := env.submitReview(t, author, 4, "Nice little shop with good coffee")
	path := fmt.Sprintf("/reviews/%d", id)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, env.createUser(t, model.RoleUser), nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, author, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, env.moderator, nil).Code)
}

func TestReviewController_Vote(t *testing.T) {
	env := setupControllerTest(t)
	id := env.submitReview(t, env.createUser(t, model.RoleUser), 4, "Nice little shop with good coffee")
	voter := env.createUser(t, model.RoleUser)
	path := fmt.Sprintf("/reviews/%d/votes", id)

	env.do(t, http.MethodPost, path, voter, gin.H{"type": "helpful"})
	w := env.do(t, http.MethodPost, path, voter, gin.H{"type": "not_helpful"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		HelpfulCount    int `json:"helpful_count"`
		NotHelpfulCount int `json:"not_helpful_count"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.HelpfulCount)
	assert.Equal(t, 1, resp.NotHelpfulCount)

	w = env.do(t, http.MethodPost, path, voter, gin.H{"type": "love"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ReviewInvalidVote, decodeError(t, w).Error)

	w = env.do(t, http.MethodPost, "/reviews/9999/votes", voter, gin.H{"type": "helpful"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewController_Report(t *testing.T) {
	env := setupControllerTest(t)
	id := env.submitReview(t, env.createUser(t, model.RoleUser), 4, "Nice little shop with good coffee")
	path := fmt.Sprintf("/reviews/%d/reports", id)

	w := env.do(t, http.MethodPost, path, env.createUser(t, model.RoleUser), gin.H{"reason": "fake"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ReportCount int `json:"report_count"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.ReportCount)

	w = env.do(t, http.MethodPost, path, env.createUser(t, model.RoleUser), gin.H{"reason": "boring"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ReviewInvalidReason, decodeError(t, w).Error)
}

func TestReviewController_Respond(t *testing.T) {
	env := setupControllerTest(t)
	id := env.submitReview(t, env.createUser(t, model.RoleUser), 2, "The croissants were a bit dry today")
	path := fmt.Sprintf("/reviews/%d/response", id)

	w := env.do(t, http.MethodPut, path, env.createUser(t, model.RoleOwner), gin.H{"text": "Thanks, we will look into it"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.KindUnauthorized, decodeError(t, w).Kind)

	w = env.do(t, http.MethodPut, path, env.owner, gin.H{"text": "Sorry about that, we bake twice a day now"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Review model.Review `json:"review"`
	}
	decode(t, w, &resp)
	require.NotNil(t, resp.Review.Response)
	assert.Equal(t, "Sorry about that, we bake twice a day now", resp.Review.Response.Text)
}

func TestReviewController_ListMyReviews(t *testing.T) {
	env := setupControllerTest(t)
	author := env.createUser(t, model.RoleUser)
	env.submitReview(t, author, 4, "Nice little shop with good coffee")
	env.submitReview(t, env.createUser(t, model.RoleUser), 5, "Someone else wrote this review")

	w := env.do(t, http.MethodGet, "/users/me/reviews?page_size=500", author, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Data     []model.Review `json:"data"`
		Total    int64          `json:"total"`
		PageSize int            `json:"page_size"`
	}
	decode(t, w, &page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Data, 1)
	assert.Equal(t, model.ReviewStatusPending, page.Data[0].Status)
}
