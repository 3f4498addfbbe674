package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	appconfig "github.com/ikkim/neighborly-backend/config"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/pkg/logger"
	"github.com/ikkim/neighborly-backend/pkg/util"
)

const (
	reviewPhotoFolder = "reviews"
	presignExpiry     = 15 * time.Minute
)

var (
	ErrUnsupportedContentType = errors.New("only image files are allowed")
	ErrFileTooLarge           = fmt.Errorf("file size exceeds maximum allowed size of %d bytes", model.MaxPhotoSizeBytes)
	ErrEmptyFile              = errors.New("file is empty")
)

type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

type PresignedURLResponse struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewS3Storage(cfg appconfig.S3Config) *S3Storage {
	var awsCfg aws.Config
	var err error

	// Static credentials when configured, otherwise the default credential chain
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		awsCfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(cfg.Region),
		)
		if err != nil {
			logger.Warn("Failed to load default AWS config, using region only", map[string]interface{}{
				"error": err.Error(),
			})
			awsCfg = aws.Config{Region: cfg.Region}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ValidatePhoto checks a review photo against the upload limits.
func ValidatePhoto(contentType string, size int64) error {
	if !util.IsImageContentType(contentType) {
		return ErrUnsupportedContentType
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > model.MaxPhotoSizeBytes {
		return ErrFileTooLarge
	}
	return nil
}

// PresignReviewPhoto returns a presigned PUT URL for one review photo owned by userID.
// The signed content length pins the upload to the declared size.
func (s *S3Storage) PresignReviewPhoto(ctx context.Context, userID uint, filename, contentType string, size int64) (*PresignedURLResponse, error) {
	if err := ValidatePhoto(contentType, size); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%d/%s%s", reviewPhotoFolder, userID, uuid.New().String(), strings.ToLower(filepath.Ext(filename)))

	presignClient := s3.NewPresignClient(s.client)
	presignedReq, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedURLResponse{
		UploadURL: presignedReq.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		// CloudFront or custom domain
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}
