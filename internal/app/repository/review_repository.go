package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/neighborly-backend/internal/app/model"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrReviewExists is returned when the (business, user) pair already has a review.
var ErrReviewExists = errors.New("review already exists for this business and user")

// reviewSortColumns whitelists the columns reviews may be ordered by.
var reviewSortColumns = map[string]string{
	"created_at":    "created_at",
	"rating":        "rating",
	"helpful_count": "helpful_count",
	"spam_score":    "spam_score",
	"report_count":  "report_count",
}

type ReviewFilter struct {
	BusinessID uint
	UserID     uint
	Statuses   []model.ReviewStatus
	SortBy     string
	SortOrder  string
	Offset     int
	Limit      int
}

// StatusChange describes one compare-and-set transition.
type StatusChange struct {
	ReviewID uint
	From     model.ReviewStatus
	To       model.ReviewStatus
	Action   model.ModerationAction
	Reason   string
	ActorID  *uint
}

// StatusAggregate is one GROUP BY status row of a business's reviews.
type StatusAggregate struct {
	Status       model.ReviewStatus
	Count        int64
	RatingSum    float64
	SpamScoreSum float64
}

type ReviewRepository interface {
	Create(review *model.Review) error
	FindByID(id uint) (*model.Review, error)
	List(filter ReviewFilter) ([]model.Review, int64, error)
	TransitionStatus(change StatusChange) (bool, error)
	RefreshFlagReason(id uint, reason string, actorID *uint) (bool, error)
	IncrementCounter(id uint, column string) error
	CreateReport(report *model.ReviewReport) error
	UpsertResponse(response *model.ReviewResponse) error
	History(reviewID uint) ([]model.ReviewStatusChange, error)
	Summarize(ctx context.Context, businessID uint, statuses []model.ReviewStatus) ([]StatusAggregate, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create stores the review, its photos and the initial history row in one
// transaction. The existence check runs inside the transaction and the unique
// index on (business_id, user_id) catches concurrent submissions.
func (r *reviewRepository) Create(review *model.Review) error {
	logger.Debug("Creating review in database", map[string]interface{}{
		"business_id": review.BusinessID,
		"user_id":     review.UserID,
		"status":      review.Status,
		"photos":      len(review.Photos),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Review{}).
			Where("business_id = ? AND user_id = ?", review.BusinessID, review.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrReviewExists
		}

		if err := tx.Omit("User", "Business", "Response").Create(review).Error; err != nil {
			if apperrors.IsDuplicateKeyError(err) {
				return ErrReviewExists
			}
			return err
		}

		initial := model.ReviewStatusChange{
			ReviewID: review.ID,
			ToStatus: review.Status,
			Action:   model.ActionSubmit,
			Reason:   review.FlagReason,
			ActorID:  &review.UserID,
		}
		return tx.Create(&initial).Error
	})
	if err != nil {
		if !errors.Is(err, ErrReviewExists) {
			logger.Error("Failed to create review in database", err, map[string]interface{}{
				"business_id": review.BusinessID,
				"user_id":     review.UserID,
			})
		}
		return err
	}

	logger.Debug("Review created in database", map[string]interface{}{
		"review_id": review.ID,
		"status":    review.Status,
	})
	return nil
}

func (r *reviewRepository) FindByID(id uint) (*model.Review, error) {
	logger.Debug("Finding review by ID", map[string]interface{}{
		"review_id": id,
	})

	var review model.Review
	err := r.db.
		Preload("User").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Response").
		First(&review, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find review by ID", err, map[string]interface{}{
				"review_id": id,
			})
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) List(filter ReviewFilter) ([]model.Review, int64, error) {
	logger.Debug("Listing reviews", map[string]interface{}{
		"business_id": filter.BusinessID,
		"user_id":     filter.UserID,
		"statuses":    filter.Statuses,
	})

	query := r.db.Model(&model.Review{})
	if filter.BusinessID != 0 {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count reviews", err)
		return nil, 0, err
	}

	column, ok := reviewSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	query = query.Order(clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   filter.SortOrder != "asc",
	}).Order("id DESC")

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var reviews []model.Review
	err := query.
		Preload("User").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Response").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to list reviews", err, map[string]interface{}{
			"business_id": filter.BusinessID,
		})
		return nil, 0, err
	}

	return reviews, total, nil
}

// TransitionStatus moves the review from change.From to change.To only if it is
// still in change.From, and records the history row in the same transaction.
// It reports false when the status no longer matches.
func (r *reviewRepository) TransitionStatus(change StatusChange) (bool, error) {
	logger.Debug("Transitioning review status", map[string]interface{}{
		"review_id": change.ReviewID,
		"from":      change.From,
		"to":        change.To,
		"action":    change.Action,
	})

	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":       change.To,
			"moderated_by": change.ActorID,
			"moderated_at": now,
			"updated_at":   now,
		}
		if change.To == model.ReviewStatusFlagged {
			updates["flag_reason"] = change.Reason
		}

		result := tx.Model(&model.Review{}).
			Where("id = ? AND status = ?", change.ReviewID, change.From).
			UpdateColumns(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		history := model.ReviewStatusChange{
			ReviewID:   change.ReviewID,
			FromStatus: change.From,
			ToStatus:   change.To,
			Action:     change.Action,
			Reason:     change.Reason,
			ActorID:    change.ActorID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		logger.Error("Failed to transition review status", err, map[string]interface{}{
			"review_id": change.ReviewID,
		})
		return false, err
	}
	return applied, nil
}

// RefreshFlagReason replaces the reason of a review that is already flagged.
func (r *reviewRepository) RefreshFlagReason(id uint, reason string, actorID *uint) (bool, error) {
	now := time.Now()
	result := r.db.Model(&model.Review{}).
		Where("id = ? AND status = ?", id, model.ReviewStatusFlagged).
		UpdateColumns(map[string]interface{}{
			"flag_reason":  reason,
			"moderated_by": actorID,
			"moderated_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		logger.Error("Failed to refresh flag reason", result.Error, map[string]interface{}{
			"review_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementCounter atomically adds one to an engagement counter column.
func (r *reviewRepository) IncrementCounter(id uint, column string) error {
	return incrementCounter(r.db, id, column)
}

func incrementCounter(db *gorm.DB, id uint, column string) error {
	result := db.Model(&model.Review{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		logger.Error("Failed to increment review counter", result.Error, map[string]interface{}{
			"review_id": id,
			"column":    column,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateReport inserts the report and bumps report_count together.
func (r *reviewRepository) CreateReport(report *model.ReviewReport) error {
	logger.Debug("Creating review report", map[string]interface{}{
		"review_id":   report.ReviewID,
		"reporter_id": report.ReporterID,
		"reason":      report.Reason,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := incrementCounter(tx, report.ReviewID, "report_count"); err != nil {
			return err
		}
		return tx.Create(report).Error
	})
}

// UpsertResponse creates the review's response or replaces its text.
func (r *reviewRepository) UpsertResponse(response *model.ReviewResponse) error {
	logger.Debug("Upserting review response", map[string]interface{}{
		"review_id":    response.ReviewID,
		"responder_id": response.ResponderID,
	})

	now := time.Now()
	response.UpdatedAt = now
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "review_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "responder_id", "updated_at"}),
	}).Create(response).Error
	if err != nil {
		logger.Error("Failed to upsert review response", err, map[string]interface{}{
			"review_id": response.ReviewID,
		})
		return err
	}

	// reload so ID and CreatedAt reflect the stored row on conflict
	return r.db.Where("review_id = ?", response.ReviewID).First(response).Error
}

func (r *reviewRepository) History(reviewID uint) ([]model.ReviewStatusChange, error) {
	var history []model.ReviewStatusChange
	err := r.db.Where("review_id = ?", reviewID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&history).Error
	if err != nil {
		logger.Error("Failed to load review history", err, map[string]interface{}{
			"review_id": reviewID,
		})
		return nil, err
	}
	return history, nil
}

// Summarize returns per-status counts and sums for a business in one query.
func (r *reviewRepository) Summarize(ctx context.Context, businessID uint, statuses []model.ReviewStatus) ([]StatusAggregate, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(rating), 0) AS rating_sum, COALESCE(SUM(spam_score), 0) AS spam_score_sum").
		Where("business_id = ?", businessID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var rows []StatusAggregate
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		logger.Error("Failed to summarize reviews", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return rows, nil
}
