package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/repository"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	reviewsSheet = "Reviews"
	summarySheet = "Summary"
	exportTime   = "2006-01-02 15:04:05"
)

var reviewExportHeader = []interface{}{
	"ID", "Status", "Rating", "Spam Score", "Comment", "Reviewer",
	"Helpful", "Not Helpful", "Reports", "Flag Reason", "Response", "Created At", "Moderated At",
}

// ReviewExport is a generated workbook ready to be sent as a download.
type ReviewExport struct {
	Filename string
	Data     []byte
}

type ExportService interface {
	ExportBusinessReviews(ctx context.Context, actor Actor, businessID uint) (*ReviewExport, error)
}

type exportService struct {
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	summaries    SummaryService
}

func NewExportService(
	reviewRepo repository.ReviewRepository,
	businessRepo repository.BusinessRepository,
	summaries SummaryService,
) ExportService {
	return &exportService{
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
		summaries:    summaries,
	}
}

// ExportBusinessReviews writes every review of the business, whatever its
// status, plus a summary sheet over the same set.
func (s *exportService) ExportBusinessReviews(ctx context.Context, actor Actor, businessID uint) (*ReviewExport, error) {
	if !actor.Role.CanModerate() {
		return nil, apperrors.NewUnauthorizedError(apperrors.AuthzModeratorOnly, "only moderators can export reviews")
	}

	business, err := s.businessRepo.FindByID(businessID)
	if err != nil {
		return nil, businessLookupError(err)
	}

	reviews, _, err := s.reviewRepo.List(repository.ReviewFilter{
		BusinessID: businessID,
		SortBy:     "created_at",
		SortOrder:  "asc",
	})
	if err != nil {
		return nil, apperrors.NewStorageError(err, "list reviews for export")
	}

	summary, err := s.summaries.SummaryFor(ctx, businessID, SummaryQuery{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close export workbook", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	if err := writeReviewsSheet(f, reviews); err != nil {
		return nil, fmt.Errorf("write reviews sheet: %w", err)
	}
	if err := writeSummarySheet(f, business, summary); err != nil {
		return nil, fmt.Errorf("write summary sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}

	logger.Info("Review export generated", map[string]interface{}{
		"business_id": businessID,
		"actor_id":    actor.UserID,
		"reviews":     len(reviews),
		"bytes":       buf.Len(),
	})

	return &ReviewExport{
		Filename: fmt.Sprintf("%s-reviews-%s.xlsx", business.Slug, time.Now().Format("20060102")),
		Data:     buf.Bytes(),
	}, nil
}

func writeReviewsSheet(f *excelize.File, reviews []model.Review) error {
	if err := f.SetSheetName(f.GetSheetName(0), reviewsSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(reviewsSheet, "A1", &reviewExportHeader); err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(reviewExportHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(reviewsSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, r := range reviews {
		reviewer := ""
		if r.User.ID != 0 {
			reviewer = r.User.Nickname
		}
		response := ""
		if r.Response != nil {
			response = r.Response.Text
		}
		moderatedAt := ""
		if r.ModeratedAt != nil {
			moderatedAt = r.ModeratedAt.Format(exportTime)
		}

		row := []interface{}{
			r.ID, string(r.Status), r.Rating, r.SpamScore, r.Comment, reviewer,
			r.HelpfulCount, r.NotHelpfulCount, r.ReportCount, r.FlagReason, response,
			r.CreatedAt.Format(exportTime), moderatedAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reviewsSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SetColWidth(reviewsSheet, "E", "E", 60)
}

func writeSummarySheet(f *excelize.File, business *model.Business, summary *model.ReviewSummary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Business", business.Name},
		{"Slug", business.Slug},
		{"Total Reviews", summary.TotalReviews},
		{"Pending", summary.PendingCount},
		{"Flagged", summary.FlaggedCount},
		{"Approved", summary.ApprovedCount},
		{"Rejected", summary.RejectedCount},
		{"Average Rating (approved)", strconv.FormatFloat(summary.AverageRating, 'f', 2, 64)},
		{"Average Spam Score", strconv.FormatFloat(summary.AverageSpamScore, 'f', 2, 64)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 28)
}
