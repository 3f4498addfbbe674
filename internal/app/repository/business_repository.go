package repository

import (
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/pkg/logger"
	"gorm.io/gorm"
)

type BusinessFilter struct {
	District string
	Category string
	Search   string
	Offset   int
	Limit    int
}

type BusinessRepository interface {
	Create(business *model.Business) error
	BulkCreate(businesses []model.Business, batchSize int) error
	Update(business *model.Business) error
	FindAll(filter BusinessFilter) ([]model.Business, int64, error)
	FindByID(id uint) (*model.Business, error)
	FindBySlug(slug string) (*model.Business, error)
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(business *model.Business) error {
	logger.Debug("Creating business in database", map[string]interface{}{
		"name":     business.Name,
		"district": business.District,
	})

	if err := r.db.Create(business).Error; err != nil {
		logger.Error("Failed to create business in database", err, map[string]interface{}{
			"name":     business.Name,
			"district": business.District,
		})
		return err
	}

	logger.Debug("Business created in database", map[string]interface{}{
		"business_id": business.ID,
		"slug":        business.Slug,
	})
	return nil
}

// BulkCreate inserts businesses in batches. Slugs should be assigned by the
// caller since the uniqueness lookup cannot see rows in the same batch.
func (r *businessRepository) BulkCreate(businesses []model.Business, batchSize int) error {
	if len(businesses) == 0 {
		return nil
	}

	logger.Info("Bulk creating businesses", map[string]interface{}{
		"count":      len(businesses),
		"batch_size": batchSize,
	})

	if err := r.db.CreateInBatches(businesses, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create businesses", err, map[string]interface{}{
			"count": len(businesses),
		})
		return err
	}
	return nil
}

func (r *businessRepository) Update(business *model.Business) error {
	logger.Debug("Updating business in database", map[string]interface{}{
		"business_id": business.ID,
	})

	if err := r.db.Omit("Owner").Save(business).Error; err != nil {
		logger.Error("Failed to update business in database", err, map[string]interface{}{
			"business_id": business.ID,
		})
		return err
	}
	return nil
}

func (r *businessRepository) FindAll(filter BusinessFilter) ([]model.Business, int64, error) {
	logger.Debug("Finding businesses", map[string]interface{}{
		"district": filter.District,
		"category": filter.Category,
		"search":   filter.Search,
	})

	query := r.db.Model(&model.Business{})
	if filter.District != "" {
		query = query.Where("district = ?", filter.District)
	}
	if filter.Category != "" {
		// categories are serialized as an array literal, so a quoted substring
		// match works on both postgres and sqlite
		query = query.Where("CAST(categories AS TEXT) LIKE ?", "%"+filter.Category+"%")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR address LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count businesses", err)
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var businesses []model.Business
	if err := query.Order("name ASC").Find(&businesses).Error; err != nil {
		logger.Error("Failed to find businesses", err, map[string]interface{}{
			"district": filter.District,
		})
		return nil, 0, err
	}

	logger.Debug("Businesses found", map[string]interface{}{
		"count": len(businesses),
		"total": total,
	})
	return businesses, total, nil
}

func (r *businessRepository) FindByID(id uint) (*model.Business, error) {
	logger.Debug("Finding business by ID", map[string]interface{}{
		"business_id": id,
	})

	var business model.Business
	if err := r.db.First(&business, id).Error; err != nil {
		logger.Error("Failed to find business by ID", err, map[string]interface{}{
			"business_id": id,
		})
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) FindBySlug(slug string) (*model.Business, error) {
	var business model.Business
	if err := r.db.Where("slug = ?", slug).First(&business).Error; err != nil {
		logger.Error("Failed to find business by slug", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return &business, nil
}
