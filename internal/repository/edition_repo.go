package repository

import (
	"errors"

	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"gorm.io/gorm"
)

const maxEditionList = 100

// EditionRepository edition data access interface.
// Writes are issued on whatever handle WithTx bound, normally the orchestrator's transaction.
type EditionRepository interface {
	WithTx(tx *gorm.DB) EditionRepository
	Create(edition *domain.Edition) error
	Update(edition *domain.Edition) error
	Delete(id int64) error
	FindByID(id int64) (*domain.Edition, error)
	ListPublished(filter domain.EditionFilter) ([]domain.Edition, error)
}

type editionRepository struct {
	db *gorm.DB
}

// NewEditionRepository creates a new EditionRepository
func NewEditionRepository(db *gorm.DB) EditionRepository {
	return &editionRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *editionRepository) WithTx(tx *gorm.DB) EditionRepository {
	return &editionRepository{db: tx}
}

// Create inserts a new edition row and fills its ID
func (r *editionRepository) Create(edition *domain.Edition) error {
	return r.db.Create(edition).Error
}

// Update writes every column of an existing edition, including NULL thumbnails
func (r *editionRepository) Update(edition *domain.Edition) error {
	if edition.ID == 0 {
		return errors.New("update requires an edition id")
	}
	// MySQL reports 0 affected rows for an unchanged row, so existence is the caller's check
	return r.db.Model(&domain.Edition{ID: edition.ID}).Select("*").Omit("id", "created_at").Updates(edition).Error
}

// Delete removes an edition row; a missing row yields ErrEditionNotFound
func (r *editionRepository) Delete(id int64) error {
	result := r.db.Delete(&domain.Edition{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrEditionNotFound
	}
	return nil
}

// FindByID finds an edition by ID
func (r *editionRepository) FindByID(id int64) (*domain.Edition, error) {
	var edition domain.Edition
	err := r.db.Where("id = ?", id).First(&edition).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrEditionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &edition, nil
}

// ListPublished lists published editions, newest first
func (r *editionRepository) ListPublished(filter domain.EditionFilter) ([]domain.Edition, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxEditionList {
		limit = maxEditionList
	}

	query := r.db.Where("status = ?", domain.EditionStatusPublished)
	if filter.Date != nil {
		query = query.Where("publication_date = ?", *filter.Date)
	}
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}

	var editions []domain.Edition
	err := query.Order("publication_date DESC").Order("id DESC").Limit(limit).Find(&editions).Error
	return editions, err
}
