package domain

import "time"

// Category hierarchical grouping of editions
// Table: categories
type Category struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ParentID  *int64    `gorm:"column:parent_id;index" json:"parent_id"`
	Name      string    `gorm:"column:name;size:128;not null" json:"name"`
	Slug      string    `gorm:"column:slug;size:128;uniqueIndex" json:"slug"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Category model
func (Category) TableName() string {
	return "categories"
}
