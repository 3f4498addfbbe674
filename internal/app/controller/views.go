package controller

import (
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/service"
)

// moderationReview is the review as moderators see it, scoring included.
type moderationReview struct {
	*model.Review
	SpamScore  float64 `json:"spam_score"`
	FlagReason string  `json:"flag_reason,omitempty"`
}

func newModerationReview(r *model.Review) moderationReview {
	return moderationReview{Review: r, SpamScore: r.SpamScore, FlagReason: r.FlagReason}
}

func newModerationReviews(reviews []model.Review) []moderationReview {
	views := make([]moderationReview, len(reviews))
	for i := range reviews {
		views[i] = newModerationReview(&reviews[i])
	}
	return views
}

// reviewFor picks the moderator view when the viewer may moderate.
func reviewFor(viewer *service.Actor, r *model.Review) interface{} {
	if viewer != nil && viewer.Role.CanModerate() {
		return newModerationReview(r)
	}
	return r
}

// publicSummary covers approved reviews only.
type publicSummary struct {
	BusinessID    uint    `json:"business_id"`
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

func newPublicSummary(s *model.ReviewSummary) publicSummary {
	return publicSummary{
		BusinessID:    s.BusinessID,
		ReviewCount:   s.ApprovedCount,
		AverageRating: s.AverageRating,
	}
}
