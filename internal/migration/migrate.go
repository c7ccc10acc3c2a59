package migration

import (
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"gorm.io/gorm"
)

// Models lists every table owned by this service
func Models() []interface{} {
	return []interface{}{&domain.Category{}, &domain.Edition{}, &domain.Setting{}}
}

// Run executes AutoMigrate for categories, editions and site_settings.
func Run(db *gorm.DB) error {
	// AutoMigrate - 테이블 없으면 생성, 있으면 컬럼만 보강
	return db.AutoMigrate(Models()...)
}

// Seed inserts a root category when the categories table is empty.
func Seed(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&domain.Category{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, db.Create(&domain.Category{Name: "Main Edition", Slug: "main"}).Error
}
