package service

import (
	"errors"
	"strings"

	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/repository"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/pkg/logger"
	"gorm.io/gorm"
)

type BusinessListOptions struct {
	District string
	Category string
	Search   string
	Page     int
	PageSize int
}

type CreateBusinessInput struct {
	Name        string   `json:"name" validate:"trimmed_min=1,max=100"`
	District    string   `json:"district" validate:"trimmed_min=1,max=50"`
	Address     string   `json:"address" validate:"max=255"`
	PhoneNumber string   `json:"phone_number" validate:"max=30"`
	Description string   `json:"description" validate:"max=2000"`
	Categories  []string `json:"categories" validate:"max=10,dive,required,max=30"`
}

// BusinessMutation holds a partial update; nil fields are left unchanged.
type BusinessMutation struct {
	Name        *string  `json:"name" validate:"omitnil,trimmed_min=1,max=100"`
	District    *string  `json:"district" validate:"omitnil,trimmed_min=1,max=50"`
	Address     *string  `json:"address" validate:"omitnil,max=255"`
	PhoneNumber *string  `json:"phone_number" validate:"omitnil,max=30"`
	Description *string  `json:"description" validate:"omitnil,max=2000"`
	Categories  []string `json:"categories" validate:"omitempty,max=10,dive,required,max=30"`
}

type BusinessService interface {
	ListBusinesses(opts BusinessListOptions) ([]model.Business, int64, error)
	GetBusiness(id uint) (*model.Business, error)
	GetBusinessBySlug(slug string) (*model.Business, error)
	CreateBusiness(actor Actor, input CreateBusinessInput) (*model.Business, error)
	UpdateBusiness(actor Actor, id uint, input BusinessMutation) (*model.Business, error)
}

type businessService struct {
	businessRepo repository.BusinessRepository
}

func NewBusinessService(businessRepo repository.BusinessRepository) BusinessService {
	return &businessService{businessRepo: businessRepo}
}

func (s *businessService) ListBusinesses(opts BusinessListOptions) ([]model.Business, int64, error) {
	page := ListOptions{Page: opts.Page, PageSize: opts.PageSize}.normalize()

	businesses, total, err := s.businessRepo.FindAll(repository.BusinessFilter{
		District: strings.TrimSpace(opts.District),
		Category: strings.TrimSpace(opts.Category),
		Search:   strings.TrimSpace(opts.Search),
		Offset:   page.offset(),
		Limit:    page.PageSize,
	})
	if err != nil {
		return nil, 0, apperrors.NewStorageError(err, "list businesses")
	}

	logger.Info("Businesses fetched", map[string]interface{}{
		"count": len(businesses),
		"total": total,
	})
	return businesses, total, nil
}

func (s *businessService) GetBusiness(id uint) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(id)
	if err != nil {
		return nil, businessLookupError(err)
	}
	return business, nil
}

func (s *businessService) GetBusinessBySlug(slug string) (*model.Business, error) {
	business, err := s.businessRepo.FindBySlug(strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, businessLookupError(err)
	}
	return business, nil
}

func (s *businessService) CreateBusiness(actor Actor, input CreateBusinessInput) (*model.Business, error) {
	if actor.Role != model.RoleOwner && actor.Role != model.RoleAdmin {
		return nil, apperrors.NewUnauthorizedError(apperrors.AuthzOwnerOnly, "only business owners can list a business")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	business := &model.Business{
		Name:        strings.TrimSpace(input.Name),
		District:    strings.TrimSpace(input.District),
		Address:     strings.TrimSpace(input.Address),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Description: strings.TrimSpace(input.Description),
		Categories:  normalizeCategories(input.Categories),
	}
	// admins list businesses on behalf of owners who have not signed up yet
	if actor.Role == model.RoleOwner {
		ownerID := actor.UserID
		business.OwnerID = &ownerID
	}

	if err := s.businessRepo.Create(business); err != nil {
		return nil, apperrors.NewStorageError(err, "create business")
	}

	logger.Info("Business created", map[string]interface{}{
		"business_id": business.ID,
		"slug":        business.Slug,
		"actor_id":    actor.UserID,
	})
	return business, nil
}

func (s *businessService) UpdateBusiness(actor Actor, id uint, input BusinessMutation) (*model.Business, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.businessRepo.FindByID(id)
	if err != nil {
		return nil, businessLookupError(err)
	}

	isOwner := existing.OwnerID != nil && *existing.OwnerID == actor.UserID
	if !isOwner && actor.Role != model.RoleAdmin {
		logger.Warn("Business update forbidden", map[string]interface{}{
			"business_id": id,
			"actor_id":    actor.UserID,
		})
		return nil, apperrors.NewUnauthorizedError(apperrors.AuthzOwnerOnly, "only the business owner can update this business")
	}

	if input.Name != nil {
		existing.Name = strings.TrimSpace(*input.Name)
	}
	if input.District != nil {
		existing.District = strings.TrimSpace(*input.District)
	}
	if input.Address != nil {
		existing.Address = strings.TrimSpace(*input.Address)
	}
	if input.PhoneNumber != nil {
		existing.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.Description != nil {
		existing.Description = strings.TrimSpace(*input.Description)
	}
	if input.Categories != nil {
		existing.Categories = normalizeCategories(input.Categories)
	}

	if err := s.businessRepo.Update(existing); err != nil {
		return nil, apperrors.NewStorageError(err, "update business")
	}

	logger.Info("Business updated", map[string]interface{}{
		"business_id": existing.ID,
		"actor_id":    actor.UserID,
	})
	return existing, nil
}

// normalizeCategories lowercases, trims and dedupes while keeping input order.
func normalizeCategories(categories []string) model.Categories {
	seen := make(map[string]bool, len(categories))
	out := make(model.Categories, 0, len(categories))
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func businessLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError(apperrors.BusinessNotFound, "business not found")
	}
	return apperrors.NewStorageError(err, "get business")
}
