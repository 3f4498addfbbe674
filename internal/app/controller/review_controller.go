package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/service"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
)

type ReviewController struct {
	reviewService  service.ReviewService
	summaryService service.SummaryService
}

func NewReviewController(reviewService service.ReviewService, summaryService service.SummaryService) *ReviewController {
	return &ReviewController{
		reviewService:  reviewService,
		summaryService: summaryService,
	}
}

type VoteRequest struct {
	Type model.VoteType `json:"type"`
}

// SubmitReview submits a review for moderation
// POST /api/v1/businesses/:id/reviews
func (ctrl *ReviewController) SubmitReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.SubmitReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badJSON(c, err)
		return
	}

	review, err := ctrl.reviewService.SubmitReview(actor.UserID, businessID, input)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListBusinessReviews lists approved reviews
// GET /api/v1/businesses/:id/reviews
func (ctrl *ReviewController) ListBusinessReviews(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	opts := listOptionsFromQuery(c)

	reviews, total, err := ctrl.reviewService.ListBusinessReviews(businessID, opts)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse(reviews, total, opts))
}

// GetBusinessSummary returns the public summary of approved reviews
// GET /api/v1/businesses/:id/reviews/summary
func (ctrl *ReviewController) GetBusinessSummary(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := ctrl.summaryService.SummaryFor(c.Request.Context(), businessID, service.SummaryQuery{
		Statuses:    []model.ReviewStatus{model.ReviewStatusApproved},
		RatingBasis: model.RatingBasisApproved,
	})
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": newPublicSummary(summary)})
}

// GetReview returns one review
// GET /api/v1/reviews/:id
func (ctrl *ReviewController) GetReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	viewer, _ := optionalActor(c)

	review, err := ctrl.reviewService.GetReview(viewer, id)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": reviewFor(viewer, review)})
}

// Vote records a helpful or not-helpful vote
// POST /api/v1/reviews/:id/votes
func (ctrl *ReviewController) Vote(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	review, err := ctrl.reviewService.Vote(id, req.Type)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review_id":         review.ID,
		"helpful_count":     review.HelpfulCount,
		"not_helpful_count": review.NotHelpfulCount,
	})
}

// Report files an abuse report
// POST /api/v1/reviews/:id/reports
func (ctrl *ReviewController) Report(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.ReportReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badJSON(c, err)
		return
	}

	review, err := ctrl.reviewService.Report(id, actor.UserID, input)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"review_id":    review.ID,
		"report_count": review.ReportCount,
	})
}

// Respond sets the business owner's reply
// PUT /api/v1/reviews/:id/response
func (ctrl *ReviewController) Respond(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.RespondInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badJSON(c, err)
		return
	}

	review, err := ctrl.reviewService.Respond(actor, id, input)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}

// ListMyReviews lists the caller's reviews in every status
// GET /api/v1/users/me/reviews
func (ctrl *ReviewController) ListMyReviews(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	opts := listOptionsFromQuery(c)

	reviews, total, err := ctrl.reviewService.ListUserReviews(actor.UserID, opts)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse(reviews, total, opts))
}
