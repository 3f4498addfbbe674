package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ikkim/neighborly-backend/config"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/repository"
	"github.com/ikkim/neighborly-backend/internal/db"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []websocket.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]websocket.Event(nil), p.events...)
}

type memorySummaryCache struct {
	mu            sync.Mutex
	data          map[uint]map[string][]byte
	invalidations map[uint]int
}

func (c *memorySummaryCache) Version(_ context.Context, businessID uint) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(c.invalidations[businessID]), nil
}

func newMemorySummaryCache() *memorySummaryCache {
	return &memorySummaryCache{
		data:          make(map[uint]map[string][]byte),
		invalidations: make(map[uint]int),
	}
}

func (c *memorySummaryCache) Get(_ context.Context, businessID uint, field string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.data[businessID][field]
	return val, ok, nil
}

func (c *memorySummaryCache) Set(_ context.Context, businessID uint, field string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[businessID] == nil {
		c.data[businessID] = make(map[string][]byte)
	}
	c.data[businessID][field] = value
	return nil
}

func (c *memorySummaryCache) Invalidate(_ context.Context, businessID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, businessID)
	c.invalidations[businessID]++
	return nil
}

func (c *memorySummaryCache) Invalidations(businessID uint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations[businessID]
}

type reviewTestEnv struct {
	db           *gorm.DB
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	userRepo     repository.UserRepository
	service      ReviewService
	summaries    SummaryService
	publisher    *recordingPublisher
	cache        *memorySummaryCache

	business  *model.Business
	owner     *model.User
	moderator *model.User
	admin     *model.User

	userSeq int
}

func defaultModerationConfig() config.ModerationConfig {
	return config.ModerationConfig{FlagThreshold: 0.7, RequireModeration: true}
}

func setupReviewServiceTest(t *testing.T, moderation config.ModerationConfig) *reviewTestEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &reviewTestEnv{
		db:           testDB,
		reviewRepo:   repository.NewReviewRepository(testDB),
		businessRepo: repository.NewBusinessRepository(testDB),
		userRepo:     repository.NewUserRepository(testDB),
		publisher:    &recordingPublisher{},
		cache:        newMemorySummaryCache(),
	}
	env.service = NewReviewService(env.reviewRepo, env.businessRepo, env.userRepo, moderation, env.cache, env.publisher)
	env.summaries = NewSummaryService(env.reviewRepo, env.businessRepo, env.cache)

	env.owner = env.createUser(t, model.RoleOwner)
	env.moderator = env.createUser(t, model.RoleModerator)
	env.admin = env.createUser(t, model.RoleAdmin)
	env.business = env.createBusiness(t, "Corner Bakery")
	return env
}

func (e *reviewTestEnv) createUser(t *testing.T, role model.UserRole) *model.User {
	e.userSeq++
	user := &model.User{
		Email:        fmt.Sprintf("user%d@example.com", e.userSeq),
		PasswordHash: "hashedpassword",
		Name:         fmt.Sprintf("User %d", e.userSeq),
		Nickname:     fmt.Sprintf("user%d", e.userSeq),
		Role:         role,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *reviewTestEnv) createBusiness(t *testing.T, name string) *model.Business {
	business := &model.Business{
		OwnerID:  &e.owner.ID,
		Name:     name,
		District: "Mapo",
	}
	require.NoError(t, e.businessRepo.Create(business))
	return business
}

// seedReview stores a review with a fixed status, bypassing the gateway.
func (e *reviewTestEnv) seedReview(t *testing.T, rating int, status model.ReviewStatus, spamScore float64) *model.Review {
	reviewer := e.createUser(t, model.RoleUser)
	review := &model.Review{
		BusinessID: e.business.ID,
		UserID:     reviewer.ID,
		Rating:     rating,
		Comment:    "Seeded review comment",
		SpamScore:  spamScore,
		Status:     status,
	}
	require.NoError(t, e.reviewRepo.Create(review))
	return review
}

func (e *reviewTestEnv) moderatorActor() Actor {
	return Actor{UserID: e.moderator.ID, Role: model.RoleModerator}
}

func (e *reviewTestEnv) countReviews(t *testing.T) int64 {
	var count int64
	require.NoError(t, e.db.Model(&model.Review{}).Count(&count).Error)
	return count
}

func assertAppError(t *testing.T, err error, kind apperrors.Kind, code string) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
	if code != "" {
		assert.Equal(t, code, appErr.Code)
	}
	return appErr
}
