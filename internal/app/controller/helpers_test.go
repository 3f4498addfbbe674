package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/neighborly-backend/config"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/repository"
	"github.com/ikkim/neighborly-backend/internal/app/service"
	"github.com/ikkim/neighborly-backend/internal/db"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/internal/middleware"
	"github.com/ikkim/neighborly-backend/internal/storage"
	"github.com/ikkim/neighborly-backend/internal/websocket"
	"github.com/ikkim/neighborly-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type fakeUploader struct {
	err error
}

func (f *fakeUploader) PresignReviewPhoto(_ context.Context, userID uint, filename, _ string, _ int64) (*storage.PresignedURLResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := fmt.Sprintf("reviews/%d/%s", userID, filename)
	return &storage.PresignedURLResponse{
		UploadURL: "https://uploads.example.com/" + key + "?signature=abc",
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

type controllerTestEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	userRepo repository.UserRepository
	uploader *fakeUploader
	hub      *websocket.Hub

	business  *model.Business
	owner     *model.User
	moderator *model.User

	userSeq int
}

// setupControllerTest wires every handler onto the same paths the API serves.
func setupControllerTest(t *testing.T) *controllerTestEnv {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	userRepo := repository.NewUserRepository(testDB)
	businessRepo := repository.NewBusinessRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)

	moderation := config.ModerationConfig{FlagThreshold: 0.7, RequireModeration: true}
	authService := service.NewAuthService(userRepo, testSecret, 15*time.Minute, 24*time.Hour, nil)
	businessService := service.NewBusinessService(businessRepo)
	summaryService := service.NewSummaryService(reviewRepo, businessRepo, nil)
	reviewService := service.NewReviewService(reviewRepo, businessRepo, userRepo, moderation, nil, hub)
	exportService := service.NewExportService(reviewRepo, businessRepo, summaryService)

	env := &controllerTestEnv{
		db:       testDB,
		userRepo: userRepo,
		uploader: &fakeUploader{},
		hub:      hub,
	}

	authCtrl := NewAuthController(authService)
	businessCtrl := NewBusinessController(businessService)
	reviewCtrl := NewReviewController(reviewService, summaryService)
	moderationCtrl := NewModerationController(reviewService, summaryService, exportService, hub, []string{"http://localhost:3000"})
	uploadCtrl := NewUploadController(env.uploader)

	authMiddleware := middleware.NewAuthMiddleware(testSecret, nil)
	authenticated := authMiddleware.Authenticate()

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	router.POST("/auth/register", authCtrl.Register)
	router.POST("/auth/login", authCtrl.Login)
	router.GET("/auth/me", authenticated, authCtrl.GetMe)

	router.GET("/businesses", businessCtrl.ListBusinesses)
	router.GET("/businesses/:id", businessCtrl.GetBusiness)
	router.POST("/businesses", authenticated, businessCtrl.CreateBusiness)
	router.PUT("/businesses/:id", authenticated, businessCtrl.UpdateBusiness)
	router.GET("/businesses/:id/reviews", reviewCtrl.ListBusinessReviews)
	router.GET("/businesses/:id/reviews/summary", reviewCtrl.GetBusinessSummary)
	router.POST("/businesses/:id/reviews", authenticated, reviewCtrl.SubmitReview)

	router.GET("/reviews/:id", authMiddleware.OptionalAuthenticate(), reviewCtrl.GetReview)
	router.POST("/reviews/:id/votes", authenticated, reviewCtrl.Vote)
	router.POST("/reviews/:id/reports", authenticated, reviewCtrl.Report)
	router.PUT("/reviews/:id/response", authenticated, reviewCtrl.Respond)
	router.GET("/users/me/reviews", authenticated, reviewCtrl.ListMyReviews)

	router.POST("/uploads/review-photos", authenticated, uploadCtrl.PresignReviewPhoto)

	admin := router.Group("/admin", authenticated)
	admin.GET("/reviews", moderationCtrl.ListQueue)
	admin.POST("/reviews/:id/moderate", moderationCtrl.Moderate)
	admin.GET("/reviews/:id/history", moderationCtrl.History)
	admin.GET("/businesses/:id/reviews/summary", moderationCtrl.Summary)
	admin.GET("/businesses/:id/reviews/export", moderationCtrl.Export)
	admin.GET("/moderation/ws", moderationCtrl.Feed)

	env.router = router
	env.owner = env.createUser(t, model.RoleOwner)
	env.moderator = env.createUser(t, model.RoleModerator)

	env.business = &model.Business{OwnerID: &env.owner.ID, Name: "Corner Bakery", District: "Mapo"}
	require.NoError(t, businessRepo.Create(env.business))
	return env
}

func (e *controllerTestEnv) createUser(t *testing.T, role model.UserRole) *model.User {
	e.userSeq++
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)

	user := &model.User{
		Email:        fmt.Sprintf("member%d@example.com", e.userSeq),
		PasswordHash: hash,
		Name:         fmt.Sprintf("Member %d", e.userSeq),
		Nickname:     fmt.Sprintf("member%d", e.userSeq),
		Role:         role,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *controllerTestEnv) tokenFor(t *testing.T, user *model.User) string {
	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

// do sends a request as user, or anonymously when user is nil.
func (e *controllerTestEnv) do(t *testing.T, method, path string, user *model.User, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.tokenFor(t, user))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *controllerTestEnv) submitReview(t *testing.T, reviewer *model.User, rating int, comment string) uint {
	w := e.do(t, http.MethodPost, fmt.Sprintf("/businesses/%d/reviews", e.business.ID), reviewer, gin.H{
		"rating":  rating,
		"comment": comment,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Review model.Review `json:"review"`
	}
	decode(t, w, &resp)
	return resp.Review.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	decode(t, w, &resp)
	return resp
}

func (e *controllerTestEnv) doWithToken(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
