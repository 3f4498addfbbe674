package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ikkim/neighborly-backend/config"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/repository"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/internal/metrics"
	"github.com/ikkim/neighborly-backend/internal/websocket"
	"github.com/ikkim/neighborly-backend/pkg/logger"
	"github.com/ikkim/neighborly-backend/pkg/util"
	"gorm.io/gorm"
)

const (
	maxModerationAttempts = 3
	cacheTimeout          = 2 * time.Second
	defaultPageSize       = 20
	maxPageSize           = 100
)

// ErrConcurrentModeration is returned when the status kept changing under a
// moderation call.
var ErrConcurrentModeration = errors.New("review status changed concurrently")

// Review limits live in the model package; the validate tags below refer to
// them through these aliases.
func init() {
	util.RegisterAlias("review_rating", fmt.Sprintf("min=%d,max=%d", model.MinRatingValue, model.MaxRatingValue))
	util.RegisterAlias("review_comment", fmt.Sprintf("trimmed_min=%d,max=%d", model.MinCommentLength, model.MaxCommentLength))
	util.RegisterAlias("review_photos", fmt.Sprintf("max=%d", model.MaxPhotosPerReview))
	util.RegisterAlias("photo_size", fmt.Sprintf("min=1,max=%d", model.MaxPhotoSizeBytes))
	util.RegisterAlias("response_text", fmt.Sprintf("trimmed_min=%d,max=%d", model.MinResponseLength, model.MaxResponseLength))
	util.RegisterAlias("report_description", fmt.Sprintf("max=%d", model.MaxReportDescription))
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uint
	Role   model.UserRole
}

type PhotoInput struct {
	URL         string `json:"url" validate:"required,url"`
	Caption     string `json:"caption" validate:"max=200"`
	ContentType string `json:"content_type" validate:"image_type"`
	SizeBytes   int64  `json:"size_bytes" validate:"photo_size"`
}

type SubmitReviewInput struct {
	Rating  int          `json:"rating" validate:"review_rating"`
	Comment string       `json:"comment" validate:"review_comment"`
	Photos  []PhotoInput `json:"photos" validate:"review_photos,dive"`
}

type ModerateReviewInput struct {
	Action model.ModerationAction `json:"action" validate:"oneof=approve reject flag"`
	Reason string                 `json:"reason" validate:"max=500"`
}

type ReportReviewInput struct {
	Reason      model.ReportReason `json:"reason" validate:"oneof=spam offensive fake irrelevant other"`
	Description string             `json:"description" validate:"report_description"`
}

type RespondInput struct {
	Text string `json:"text" validate:"response_text"`
}

type ListOptions struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

func (o ListOptions) normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = defaultPageSize
	}
	if o.PageSize > maxPageSize {
		o.PageSize = maxPageSize
	}
	return o
}

func (o ListOptions) offset() int {
	return (o.Page - 1) * o.PageSize
}

type QueueFilter struct {
	BusinessID uint
	Statuses   []model.ReviewStatus
	ListOptions
}

// EventPublisher receives moderation feed events.
type EventPublisher interface {
	Publish(event websocket.Event)
}

type ReviewService interface {
	SubmitReview(reviewerID, businessID uint, input SubmitReviewInput) (*model.Review, error)
	ModerateReview(actor Actor, reviewID uint, input ModerateReviewInput) (*model.Review, error)
	Vote(reviewID uint, voteType model.VoteType) (*model.Review, error)
	Report(reviewID, reporterID uint, input ReportReviewInput) (*model.Review, error)
	Respond(actor Actor, reviewID uint, input RespondInput) (*model.Review, error)

	GetReview(viewer *Actor, reviewID uint) (*model.Review, error)
	ListBusinessReviews(businessID uint, opts ListOptions) ([]model.Review, int64, error)
	ListUserReviews(userID uint, opts ListOptions) ([]model.Review, int64, error)
	ListModerationQueue(actor Actor, filter QueueFilter) ([]model.Review, int64, error)
	GetReviewHistory(actor Actor, reviewID uint) ([]model.ReviewStatusChange, error)
}

type reviewService struct {
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	userRepo     repository.UserRepository
	moderation   config.ModerationConfig
	cache        SummaryCache   // optional
	publisher    EventPublisher // optional
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	businessRepo repository.BusinessRepository,
	userRepo repository.UserRepository,
	moderation config.ModerationConfig,
	cache SummaryCache,
	publisher EventPublisher,
) ReviewService {
	return &reviewService{
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
		userRepo:     userRepo,
		moderation:   moderation,
		cache:        cache,
		publisher:    publisher,
	}
}

// reviewValidationCode maps a failing field and rule to its error code.
func reviewValidationCode(v util.FieldViolation) string {
	field := v.Field
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch {
	case field == "rating":
		return apperrors.ReviewInvalidRating
	case field == "comment" && v.Tag == "trimmed_min":
		return apperrors.ReviewTooShort
	case field == "comment" && v.Tag == "max":
		return apperrors.ReviewTooLong
	case field == "photos" && v.Tag == "max":
		return apperrors.ReviewTooManyPhotos
	case field == "content_type":
		return apperrors.UploadInvalidFileType
	case field == "size_bytes" && v.Tag == "max":
		return apperrors.UploadFileTooLarge
	case field == "action":
		return apperrors.ReviewInvalidAction
	case field == "text" && v.Tag == "trimmed_min":
		return apperrors.ReviewResponseTooShort
	case field == "text" && v.Tag == "max":
		return apperrors.ReviewResponseTooLong
	case v.Field == "reason" && v.Tag == "oneof":
		return apperrors.ReviewInvalidReason
	case v.Tag == "max":
		return apperrors.ValidationTooLong
	case v.Tag == "required":
		return apperrors.ValidationRequired
	}
	return apperrors.ValidationInvalidInput
}

// validateInput returns a validation AppError naming the first failing field and
// listing every violation, or nil.
func validateInput(input interface{}) error {
	violations := util.ValidateStruct(input)
	if len(violations) == 0 {
		return nil
	}

	first := violations[0]
	appErr := apperrors.NewValidationError(first.Field, reviewValidationCode(first), first.Message)
	for _, v := range violations[1:] {
		if _, exists := appErr.Fields[v.Field]; !exists {
			appErr.Fields[v.Field] = v.Message
		}
	}
	return appErr
}

func (s *reviewService) SubmitReview(reviewerID, businessID uint, input SubmitReviewInput) (*model.Review, error) {
	logger.Info("Submitting review", map[string]interface{}{
		"user_id":     reviewerID,
		"business_id": businessID,
		"rating":      input.Rating,
		"photos":      len(input.Photos),
	})

	if err := validateInput(input); err != nil {
		logger.Warn("Review submission rejected by validation", map[string]interface{}{
			"user_id":     reviewerID,
			"business_id": businessID,
			"field":       apperrors.FieldOf(err),
		})
		return nil, err
	}

	if err := s.ensureUser(reviewerID); err != nil {
		return nil, err
	}
	business, err := s.findBusiness(businessID)
	if err != nil {
		return nil, err
	}

	// scored as submitted; only the stored text is trimmed
	comment := strings.TrimSpace(input.Comment)
	signals := util.SpamBreakdown(input.Comment)
	score := signals.Total()

	review := &model.Review{
		BusinessID: business.ID,
		UserID:     reviewerID,
		Rating:     input.Rating,
		Comment:    comment,
		SpamScore:  score,
		Status:     s.initialStatus(score),
		Photos:     make([]model.ReviewPhoto, 0, len(input.Photos)),
	}
	if review.Status == model.ReviewStatusFlagged {
		review.FlagReason = fmt.Sprintf("automatic: spam score %.2f", score)
	}
	for i, p := range input.Photos {
		review.Photos = append(review.Photos, model.ReviewPhoto{
			Position:    i,
			URL:         strings.TrimSpace(p.URL),
			Caption:     strings.TrimSpace(p.Caption),
			ContentType: p.ContentType,
			SizeBytes:   p.SizeBytes,
		})
	}

	if err := s.reviewRepo.Create(review); err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			logger.Warn("Duplicate review submission", map[string]interface{}{
				"user_id":     reviewerID,
				"business_id": businessID,
			})
			return nil, apperrors.NewDuplicateReviewError()
		}
		return nil, apperrors.NewStorageError(err, "submit review")
	}

	logger.Info("Review submitted", map[string]interface{}{
		"review_id":        review.ID,
		"status":           review.Status,
		"spam_score":       score,
		"repeated_words":   signals.RepeatedWords,
		"all_caps":         signals.AllCaps,
		"punctuation":      signals.Punctuation,
		"suspicious_terms": signals.SuspiciousTerms,
	})

	metrics.ReviewSubmitted(string(review.Status), score)
	s.invalidateSummary(review.BusinessID)
	s.publish(websocket.Event{
		Type:       websocket.EventReviewSubmitted,
		ReviewID:   review.ID,
		BusinessID: review.BusinessID,
		Status:     string(review.Status),
		Action:     string(model.ActionSubmit),
		Reason:     review.FlagReason,
		ActorID:    reviewerID,
		SpamScore:  &score,
	})

	return s.reload(review)
}

func (s *reviewService) initialStatus(score float64) model.ReviewStatus {
	switch {
	case score > s.moderation.FlagThreshold:
		return model.ReviewStatusFlagged
	case s.moderation.RequireModeration:
		return model.ReviewStatusPending
	}
	return model.ReviewStatusApproved
}

func (s *reviewService) ModerateReview(actor Actor, reviewID uint, input ModerateReviewInput) (*model.Review, error) {
	logger.Info("Moderating review", map[string]interface{}{
		"review_id": reviewID,
		"actor_id":  actor.UserID,
		"action":    input.Action,
	})

	if !actor.Role.CanModerate() {
		logger.Warn("Moderation denied", map[string]interface{}{
			"review_id": reviewID,
			"actor_id":  actor.UserID,
			"role":      actor.Role,
		})
		return nil, apperrors.NewUnauthorizedError(apperrors.AuthzModeratorOnly, "only moderators can moderate reviews")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	actorID := actor.UserID

	for attempt := 0; attempt < maxModerationAttempts; attempt++ {
		review, err := s.findReview(reviewID)
		if err != nil {
			return nil, err
		}

		target, ok := input.Action.Apply(review.Status)
		if !ok {
			return nil, apperrors.NewValidationError("action", apperrors.ReviewInvalidAction,
				fmt.Sprintf("cannot %s a %s review", input.Action, review.Status))
		}

		if target == review.Status {
			if input.Action == model.ActionFlag && reason != "" && reason != review.FlagReason {
				refreshed, err := s.reviewRepo.RefreshFlagReason(review.ID, reason, &actorID)
				if err != nil {
					return nil, apperrors.NewStorageError(err, "moderate review")
				}
				if !refreshed {
					continue
				}
			}
			metrics.ModerationApplied(string(input.Action), false)
			logger.Info("Moderation left review status unchanged", map[string]interface{}{
				"review_id": review.ID,
				"status":    review.Status,
			})
			return s.reload(review)
		}

		applied, err := s.reviewRepo.TransitionStatus(repository.StatusChange{
			ReviewID: review.ID,
			From:     review.Status,
			To:       target,
			Action:   input.Action,
			Reason:   reason,
			ActorID:  &actorID,
		})
		if err != nil {
			return nil, apperrors.NewStorageError(err, "moderate review")
		}
		if !applied {
			logger.Debug("Review status changed during moderation, retrying", map[string]interface{}{
				"review_id": review.ID,
				"attempt":   attempt + 1,
			})
			continue
		}

		logger.Info("Review status changed", map[string]interface{}{
			"review_id": review.ID,
			"from":      review.Status,
			"to":        target,
			"actor_id":  actorID,
		})

		metrics.ModerationApplied(string(input.Action), true)
		s.invalidateSummary(review.BusinessID)
		s.publish(websocket.Event{
			Type:           websocket.EventReviewStatusChanged,
			ReviewID:       review.ID,
			BusinessID:     review.BusinessID,
			Status:         string(target),
			PreviousStatus: string(review.Status),
			Action:         string(input.Action),
			Reason:         reason,
			ActorID:        actorID,
		})

		return s.reload(review)
	}

	logger.Warn("Moderation gave up after concurrent changes", map[string]interface{}{
		"review_id": reviewID,
		"attempts":  maxModerationAttempts,
	})
	return nil, apperrors.NewStorageError(ErrConcurrentModeration, "moderate review")
}

func (s *reviewService) Vote(reviewID uint, voteType model.VoteType) (*model.Review, error) {
	column, ok := voteType.CounterColumn()
	if !ok {
		return nil, apperrors.NewValidationError("type", apperrors.ReviewInvalidVote, "type must be one of: helpful, not_helpful")
	}

	if err := s.reviewRepo.IncrementCounter(reviewID, column); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reviewNotFound()
		}
		return nil, apperrors.NewStorageError(err, "vote on review")
	}

	logger.Debug("Review vote recorded", map[string]interface{}{
		"review_id": reviewID,
		"type":      voteType,
	})
	metrics.VoteRecorded(string(voteType))

	return s.findReview(reviewID)
}

func (s *reviewService) Report(reviewID, reporterID uint, input ReportReviewInput) (*model.Review, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	report := &model.ReviewReport{
		ReviewID:    reviewID,
		ReporterID:  reporterID,
		Reason:      input.Reason,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.reviewRepo.CreateReport(report); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reviewNotFound()
		}
		return nil, apperrors.NewStorageError(err, "report review")
	}

	logger.Info("Review reported", map[string]interface{}{
		"review_id":   reviewID,
		"reporter_id": reporterID,
		"reason":      input.Reason,
	})
	metrics.ReportRecorded(string(input.Reason))

	review, err := s.findReview(reviewID)
	if err != nil {
		return nil, err
	}
	s.publish(websocket.Event{
		Type:       websocket.EventReviewReported,
		ReviewID:   review.ID,
		BusinessID: review.BusinessID,
		Status:     string(review.Status),
		Reason:     string(input.Reason),
		ActorID:    reporterID,
	})
	return review, nil
}

func (s *reviewService) Respond(actor Actor, reviewID uint, input RespondInput) (*model.Review, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	review, err := s.findReview(reviewID)
	if err != nil {
		return nil, err
	}
	business, err := s.findBusiness(review.BusinessID)
	if err != nil {
		return nil, err
	}

	isOwner := business.OwnerID != nil && *business.OwnerID == actor.UserID
	if !isOwner && actor.Role != model.RoleAdmin {
		logger.Warn("Response denied: not the business owner", map[string]interface{}{
			"review_id": reviewID,
			"actor_id":  actor.UserID,
		})
		return nil, apperrors.NewUnauthorizedError(apperrors.AuthzOwnerOnly, "only the business owner can respond to reviews")
	}

	response := &model.ReviewResponse{
		ReviewID:    review.ID,
		ResponderID: actor.UserID,
		Text:        strings.TrimSpace(input.Text),
	}
	if err := s.reviewRepo.UpsertResponse(response); err != nil {
		return nil, apperrors.NewStorageError(err, "respond to review")
	}

	logger.Info("Review response saved", map[string]interface{}{
		"review_id":    review.ID,
		"responder_id": actor.UserID,
		"length":       utf8.RuneCountInString(response.Text),
	})
	metrics.ResponseRecorded()
	s.publish(websocket.Event{
		Type:       websocket.EventReviewResponded,
		ReviewID:   review.ID,
		BusinessID: review.BusinessID,
		Status:     string(review.Status),
		ActorID:    actor.UserID,
	})

	return s.reload(review)
}

// GetReview hides unapproved reviews from everyone but their author and moderators.
func (s *reviewService) GetReview(viewer *Actor, reviewID uint) (*model.Review, error) {
	review, err := s.findReview(reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status == model.ReviewStatusApproved {
		return review, nil
	}
	if viewer != nil && (viewer.UserID == review.UserID || viewer.Role.CanModerate()) {
		return review, nil
	}
	return nil, reviewNotFound()
}

func (s *reviewService) ListBusinessReviews(businessID uint, opts ListOptions) ([]model.Review, int64, error) {
	if _, err := s.findBusiness(businessID); err != nil {
		return nil, 0, err
	}

	opts = opts.normalize()
	reviews, total, err := s.reviewRepo.List(repository.ReviewFilter{
		BusinessID: businessID,
		Statuses:   []model.ReviewStatus{model.ReviewStatusApproved},
		SortBy:     opts.SortBy,
		SortOrder:  opts.SortOrder,
		Offset:     opts.offset(),
		Limit:      opts.PageSize,
	})
	if err != nil {
		return nil, 0, apperrors.NewStorageError(err, "list reviews")
	}
	return reviews, total, nil
}

func (s *reviewService) ListUserReviews(userID uint, opts ListOptions) ([]model.Review, int64, error) {
	opts = opts.normalize()
	reviews, total, err := s.reviewRepo.List(repository.ReviewFilter{
		UserID:    userID,
		SortBy:    opts.SortBy,
		SortOrder: opts.SortOrder,
		Offset:    opts.offset(),
		Limit:     opts.PageSize,
	})
	if err != nil {
		return nil, 0, apperrors.NewStorageError(err, "list reviews")
	}
	return reviews, total, nil
}

// ListModerationQueue defaults to reviews awaiting a decision.
func (s *reviewService) ListModerationQueue(actor Actor, filter QueueFilter) ([]model.Review, int64, error) {
	if !actor.Role.CanModerate() {
		return nil, 0, apperrors.NewUnauthorizedError(apperrors.AuthzModeratorOnly, "only moderators can view the moderation queue")
	}

	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = []model.ReviewStatus{model.ReviewStatusPending, model.ReviewStatusFlagged}
	}
	for _, status := range statuses {
		if !status.Valid() {
			return nil, 0, apperrors.NewValidationError("status", apperrors.ReviewInvalidStatus,
				fmt.Sprintf("unknown review status %q", status))
		}
	}

	opts := filter.ListOptions.normalize()
	reviews, total, err := s.reviewRepo.List(repository.ReviewFilter{
		BusinessID: filter.BusinessID,
		Statuses:   statuses,
		SortBy:     opts.SortBy,
		SortOrder:  opts.SortOrder,
		Offset:     opts.offset(),
		Limit:      opts.PageSize,
	})
	if err != nil {
		return nil, 0, apperrors.NewStorageError(err, "list moderation queue")
	}
	return reviews, total, nil
}

func (s *reviewService) GetReviewHistory(actor Actor, reviewID uint) ([]model.ReviewStatusChange, error) {
	if !actor.Role.CanModerate() {
		return nil, apperrors.NewUnauthorizedError(apperrors.AuthzModeratorOnly, "only moderators can view review history")
	}
	if _, err := s.findReview(reviewID); err != nil {
		return nil, err
	}

	history, err := s.reviewRepo.History(reviewID)
	if err != nil {
		return nil, apperrors.NewStorageError(err, "load review history")
	}
	return history, nil
}

func (s *reviewService) findReview(id uint) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reviewNotFound()
		}
		return nil, apperrors.NewStorageError(err, "get review")
	}
	return review, nil
}

func (s *reviewService) findBusiness(id uint) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.BusinessNotFound, "business not found")
		}
		return nil, apperrors.NewStorageError(err, "get business")
	}
	return business, nil
}

func (s *reviewService) ensureUser(id uint) error {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError(apperrors.UserNotFound, "reviewer not found")
		}
		return apperrors.NewStorageError(err, "get user")
	}
	return nil
}

// reload returns the stored review with its associations, falling back to the
// in-memory copy when the read fails after a successful write.
func (s *reviewService) reload(review *model.Review) (*model.Review, error) {
	fresh, err := s.reviewRepo.FindByID(review.ID)
	if err != nil {
		logger.Warn("Failed to reload review after write", map[string]interface{}{
			"review_id": review.ID,
			"error":     err.Error(),
		})
		return review, nil
	}
	return fresh, nil
}

func (s *reviewService) invalidateSummary(businessID uint) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := s.cache.Invalidate(ctx, businessID); err != nil {
		logger.Warn("Failed to invalidate review summary cache", map[string]interface{}{
			"business_id": businessID,
			"error":       err.Error(),
		})
	}
}

func (s *reviewService) publish(event websocket.Event) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

func reviewNotFound() error {
	return apperrors.NewNotFoundError(apperrors.ReviewNotFound, "review not found")
}
