package repository

import (
	"context"
	"errors"

	"github.com/gituserindia/eptest-sub000/internal/domain"
	"github.com/gituserindia/eptest-sub000/pkg/cache"
	pkglogger "github.com/gituserindia/eptest-sub000/pkg/logger"
	"gorm.io/gorm"
)

// CategoryRepository category existence check used by edition validation
type CategoryRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Exists reports whether a category row with id exists
func (r *categoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CachedCategoryRepository 캐시가 적용된 카테고리 저장소 (존재하는 카테고리만 캐시)
type CachedCategoryRepository struct {
	repo  CategoryRepository
	cache cache.Service
}

// NewCachedCategoryRepository wraps repo with a cache of positive lookups
func NewCachedCategoryRepository(repo CategoryRepository, c cache.Service) CategoryRepository {
	if c == nil || !c.IsAvailable() {
		return repo
	}
	return &CachedCategoryRepository{repo: repo, cache: c}
}

// Exists consults the cache first; only positive answers are cached so a new category is seen immediately
func (r *CachedCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var hit bool
	err := r.cache.Get(ctx, cache.CategoryKey(id), &hit)
	if err == nil && hit {
		return true, nil
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		pkglogger.GetLogger().Warn().Err(err).Int64("category_id", id).Msg("category cache read failed")
	}

	ok, err := r.repo.Exists(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if err := r.cache.Set(ctx, cache.CategoryKey(id), true, cache.TTLCategory); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Int64("category_id", id).Msg("category cache write failed")
	}
	return true, nil
}
