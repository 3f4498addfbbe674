package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/internal/middleware"
	"github.com/ikkim/neighborly-backend/internal/storage"
)

// PhotoUploader issues presigned upload URLs for review photos.
type PhotoUploader interface {
	PresignReviewPhoto(ctx context.Context, userID uint, filename, contentType string, size int64) (*storage.PresignedURLResponse, error)
}

type UploadController struct {
	uploader PhotoUploader
}

func NewUploadController(uploader PhotoUploader) *UploadController {
	return &UploadController{uploader: uploader}
}

type ReviewPhotoUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
}

// PresignReviewPhoto returns a presigned PUT URL for a review photo
// POST /api/v1/uploads/review-photos
func (ctrl *UploadController) PresignReviewPhoto(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req ReviewPhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presigned URL request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename, content_type and size_bytes are required")
		return
	}

	response, err := ctrl.uploader.PresignReviewPhoto(c.Request.Context(), actor.UserID, req.Filename, req.ContentType, req.SizeBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedContentType):
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
		case errors.Is(err, storage.ErrFileTooLarge):
			apperrors.BadRequest(c, apperrors.UploadFileTooLarge, err.Error())
		case errors.Is(err, storage.ErrEmptyFile):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		default:
			log.Error("Failed to generate presigned URL", err, map[string]interface{}{
				"user_id":      actor.UserID,
				"content_type": req.ContentType,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "failed to prepare upload")
		}
		return
	}

	log.Info("Presigned URL generated", map[string]interface{}{
		"user_id": actor.UserID,
		"key":     response.Key,
	})
	c.JSON(http.StatusOK, response)
}
