package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/repository"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/pkg/logger"
	"gorm.io/gorm"
)

// SummaryCache stores serialized summaries per business and query.
// Invalidate must advance Version so fields derived from an older version
// are no longer read.
type SummaryCache interface {
	Version(ctx context.Context, businessID uint) (int64, error)
	Get(ctx context.Context, businessID uint, field string) ([]byte, bool, error)
	Set(ctx context.Context, businessID uint, field string, value []byte) error
	Invalidate(ctx context.Context, businessID uint) error
}

// SummaryQuery selects the reviews a summary considers. An empty Statuses
// considers every review. RatingBasis defaults to approved.
type SummaryQuery struct {
	Statuses    []model.ReviewStatus
	RatingBasis model.RatingBasis
}

type SummaryService interface {
	SummaryFor(ctx context.Context, businessID uint, query SummaryQuery) (*model.ReviewSummary, error)
}

type summaryService struct {
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	cache        SummaryCache // optional
}

func NewSummaryService(
	reviewRepo repository.ReviewRepository,
	businessRepo repository.BusinessRepository,
	cache SummaryCache,
) SummaryService {
	return &summaryService{
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
		cache:        cache,
	}
}

// normalize validates the query and puts it in canonical form so equal
// queries share a cache field.
func (q SummaryQuery) normalize() (SummaryQuery, error) {
	switch q.RatingBasis {
	case "":
		q.RatingBasis = model.RatingBasisApproved
	case model.RatingBasisApproved, model.RatingBasisFiltered:
	default:
		return q, apperrors.NewValidationError("rating_basis", apperrors.ReviewInvalidRatingBase,
			"rating_basis must be one of: approved, filtered")
	}

	seen := make(map[model.ReviewStatus]bool, len(q.Statuses))
	statuses := make([]model.ReviewStatus, 0, len(q.Statuses))
	for _, status := range q.Statuses {
		if !status.Valid() {
			return q, apperrors.NewValidationError("status", apperrors.ReviewInvalidStatus,
				fmt.Sprintf("unknown review status %q", status))
		}
		if !seen[status] {
			seen[status] = true
			statuses = append(statuses, status)
		}
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	q.Statuses = statuses
	return q, nil
}

func (q SummaryQuery) cacheField(version int64) string {
	parts := make([]string, len(q.Statuses))
	for i, s := range q.Statuses {
		parts[i] = string(s)
	}
	return fmt.Sprintf("v%d|%s|%s", version, q.RatingBasis, strings.Join(parts, ","))
}

func (s *summaryService) SummaryFor(ctx context.Context, businessID uint, query SummaryQuery) (*model.ReviewSummary, error) {
	query, err := query.normalize()
	if err != nil {
		return nil, err
	}

	if _, err := s.businessRepo.FindByID(businessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.BusinessNotFound, "business not found")
		}
		return nil, apperrors.NewStorageError(err, "get business")
	}

	// the version is read before the rows so an invalidation that lands
	// while computing leaves this result under a field nobody reads
	version, cacheable := s.cacheVersion(ctx, businessID)
	field := query.cacheField(version)
	if cacheable {
		if cached := s.fromCache(ctx, businessID, field); cached != nil {
			return cached, nil
		}
	}

	rows, err := s.reviewRepo.Summarize(ctx, businessID, query.Statuses)
	if err != nil {
		return nil, apperrors.NewStorageError(err, "summarize reviews")
	}
	summary := buildSummary(businessID, query.RatingBasis, rows)

	logger.Debug("Review summary computed", map[string]interface{}{
		"business_id":   businessID,
		"query":         field,
		"total_reviews": summary.TotalReviews,
	})

	if cacheable {
		s.toCache(ctx, businessID, field, summary)
	}
	return summary, nil
}

// buildSummary folds per-status aggregates into a summary. Averages are
// unrounded and zero over empty sets.
func buildSummary(businessID uint, basis model.RatingBasis, rows []repository.StatusAggregate) *model.ReviewSummary {
	summary := &model.ReviewSummary{
		BusinessID:  businessID,
		RatingBasis: basis,
	}

	var spamSum, ratingSum float64
	var ratingCount int64
	for _, row := range rows {
		summary.TotalReviews += row.Count
		spamSum += row.SpamScoreSum

		switch row.Status {
		case model.ReviewStatusPending:
			summary.PendingCount += row.Count
		case model.ReviewStatusFlagged:
			summary.FlaggedCount += row.Count
		case model.ReviewStatusApproved:
			summary.ApprovedCount += row.Count
		case model.ReviewStatusRejected:
			summary.RejectedCount += row.Count
		}

		if basis == model.RatingBasisFiltered || row.Status == model.ReviewStatusApproved {
			ratingSum += row.RatingSum
			ratingCount += row.Count
		}
	}

	if summary.TotalReviews > 0 {
		summary.AverageSpamScore = spamSum / float64(summary.TotalReviews)
	}
	if ratingCount > 0 {
		summary.AverageRating = ratingSum / float64(ratingCount)
	}
	return summary
}

// cacheVersion reports false when there is no cache or it cannot be reached.
func (s *summaryService) cacheVersion(ctx context.Context, businessID uint) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	version, err := s.cache.Version(ctx, businessID)
	if err != nil {
		logger.Warn("Review summary cache unavailable", map[string]interface{}{
			"business_id": businessID,
			"error":       err.Error(),
		})
		return 0, false
	}
	return version, true
}

func (s *summaryService) fromCache(ctx context.Context, businessID uint, field string) *model.ReviewSummary {
	data, ok, err := s.cache.Get(ctx, businessID, field)
	if err != nil || !ok {
		return nil
	}

	var summary model.ReviewSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		logger.Warn("Discarding unreadable cached summary", map[string]interface{}{
			"business_id": businessID,
			"error":       err.Error(),
		})
		return nil
	}
	return &summary
}

func (s *summaryService) toCache(ctx context.Context, businessID uint, field string, summary *model.ReviewSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		logger.Error("Failed to encode review summary", err)
		return
	}
	if err := s.cache.Set(ctx, businessID, field, data); err != nil {
		logger.Warn("Failed to cache review summary", map[string]interface{}{
			"business_id": businessID,
			"error":       err.Error(),
		})
	}
}
