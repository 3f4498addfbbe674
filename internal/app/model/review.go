package model

import (
	"time"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusFlagged  ReviewStatus = "flagged"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// ReviewStatuses lists every status in display order.
var ReviewStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusFlagged,
	ReviewStatusApproved,
	ReviewStatusRejected,
}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusFlagged, ReviewStatusRejected:
		return true
	}
	return false
}

type ModerationAction string

const (
	ActionSubmit  ModerationAction = "submit" // history only
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionFlag    ModerationAction = "flag"
)

// moderationTransitions maps each action to the source states it applies from.
// Moderators may override any state, so every pair is present.
var moderationTransitions = map[ModerationAction]struct {
	target ReviewStatus
	from   []ReviewStatus
}{
	ActionApprove: {ReviewStatusApproved, ReviewStatuses},
	ActionReject:  {ReviewStatusRejected, ReviewStatuses},
	ActionFlag:    {ReviewStatusFlagged, ReviewStatuses},
}

// Apply returns the status a review in state from ends up in after action.
// ok is false for unknown actions or disallowed source states.
func (a ModerationAction) Apply(from ReviewStatus) (ReviewStatus, bool) {
	rule, exists := moderationTransitions[a]
	if !exists {
		return "", false
	}
	for _, s := range rule.from {
		if s == from {
			return rule.target, true
		}
	}
	return "", false
}

type VoteType string

const (
	VoteHelpful    VoteType = "helpful"
	VoteNotHelpful VoteType = "not_helpful"
)

// CounterColumn is the reviews column the vote increments.
func (v VoteType) CounterColumn() (string, bool) {
	switch v {
	case VoteHelpful:
		return "helpful_count", true
	case VoteNotHelpful:
		return "not_helpful_count", true
	}
	return "", false
}

// Review is one reviewer's rating and comment about one business.
// Moderation fields are left out of its JSON; moderator views add them back.
type Review struct {
	ID         uint     `gorm:"primarykey" json:"id"`
	BusinessID uint     `gorm:"not null;uniqueIndex:idx_reviews_business_user;index" json:"business_id"`
	Business   Business `gorm:"foreignKey:BusinessID" json:"-"`
	UserID     uint     `gorm:"not null;uniqueIndex:idx_reviews_business_user;index" json:"user_id"`
	User       User     `gorm:"foreignKey:UserID" json:"user"`

	Rating  int    `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Comment string `gorm:"type:text;not null" json:"comment"`

	SpamScore  float64      `gorm:"not null;default:0" json:"-"`
	Status     ReviewStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	FlagReason string       `gorm:"type:text" json:"-"`

	HelpfulCount    int `gorm:"not null;default:0" json:"helpful_count"`
	NotHelpfulCount int `gorm:"not null;default:0" json:"not_helpful_count"`
	ReportCount     int `gorm:"not null;default:0" json:"report_count"`

	ModeratedBy *uint      `json:"moderated_by,omitempty"`
	ModeratedAt *time.Time `json:"moderated_at,omitempty"`

	Photos   []ReviewPhoto   `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"photos"`
	Response *ReviewResponse `gorm:"foreignKey:ReviewID" json:"response,omitempty"`

	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

type ReviewPhoto struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ReviewID    uint      `gorm:"not null;index" json:"review_id"`
	Position    int       `gorm:"not null" json:"position"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	Caption     string    `gorm:"type:varchar(200)" json:"caption,omitempty"`
	ContentType string    `gorm:"type:varchar(50);not null" json:"content_type"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ReviewPhoto) TableName() string {
	return "review_photos"
}

type ReportReason string

const (
	ReportReasonSpam       ReportReason = "spam"
	ReportReasonOffensive  ReportReason = "offensive"
	ReportReasonFake       ReportReason = "fake"
	ReportReasonIrrelevant ReportReason = "irrelevant"
	ReportReasonOther      ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonSpam, ReportReasonOffensive, ReportReasonFake, ReportReasonIrrelevant, ReportReasonOther:
		return true
	}
	return false
}

// ReviewReport accumulates; reports are never removed.
type ReviewReport struct {
	ID          uint         `gorm:"primarykey" json:"id"`
	ReviewID    uint         `gorm:"not null;index" json:"review_id"`
	ReporterID  uint         `gorm:"not null;index" json:"reporter_id"`
	Reason      ReportReason `gorm:"type:varchar(20);not null" json:"reason"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (ReviewReport) TableName() string {
	return "review_reports"
}

// ReviewResponse is the business's single reply to a review.
type ReviewResponse struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ReviewID    uint      `gorm:"not null;uniqueIndex" json:"review_id"`
	ResponderID uint      `gorm:"not null" json:"responder_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ReviewResponse) TableName() string {
	return "review_responses"
}

// ReviewStatusChange records one status transition. FromStatus is empty for the
// row written at submission.
type ReviewStatusChange struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	ReviewID   uint             `gorm:"not null;index" json:"review_id"`
	FromStatus ReviewStatus     `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus   ReviewStatus     `gorm:"type:varchar(20);not null" json:"to_status"`
	Action     ModerationAction `gorm:"type:varchar(20);not null" json:"action"`
	Reason     string           `gorm:"type:text" json:"reason,omitempty"`
	ActorID    *uint            `json:"actor_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (ReviewStatusChange) TableName() string {
	return "review_status_changes"
}

type RatingBasis string

const (
	RatingBasisApproved RatingBasis = "approved" // public display
	RatingBasisFiltered RatingBasis = "filtered" // admin views
)

// ReviewSummary is computed on read and never stored.
type ReviewSummary struct {
	BusinessID       uint        `json:"business_id"`
	TotalReviews     int64       `json:"total_reviews"`
	PendingCount     int64       `json:"pending_count"`
	FlaggedCount     int64       `json:"flagged_count"`
	ApprovedCount    int64       `json:"approved_count"`
	RejectedCount    int64       `json:"rejected_count"`
	AverageSpamScore float64     `json:"average_spam_score"`
	AverageRating    float64     `json:"average_rating"`
	RatingBasis      RatingBasis `json:"rating_basis"`
}

const (
	MinRatingValue       = 1
	MaxRatingValue       = 5
	MinCommentLength     = 10 // runes, after trimming
	MaxCommentLength     = 1000
	MaxPhotosPerReview   = 5
	MaxPhotoSizeBytes    = 5 << 20
	MinResponseLength    = 10
	MaxResponseLength    = 500
	MaxReportDescription = 500
)

