package domain

import (
	"strings"
	"time"
)

// EditionStatus controls public visibility of an edition
type EditionStatus string

const (
	EditionStatusPublished EditionStatus = "published"
	EditionStatusPrivate   EditionStatus = "private"
)

// ParseEditionStatus maps a form value to a status; empty means private
func ParseEditionStatus(s string) (EditionStatus, bool) {
	switch EditionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", EditionStatusPrivate:
		return EditionStatusPrivate, true
	case EditionStatusPublished:
		return EditionStatusPublished, true
	}
	return "", false
}

// DateLayout is the wire format of publication dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD publication date as local midnight.
// The MySQL DSN uses loc=Local, so a UTC midnight would be stored as the previous day west of UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
}

// Edition one newspaper issue plus its stored PDF and rendered pages
// Table: editions
type Edition struct {
	ID              int64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title           string        `gorm:"column:title;size:255;not null" json:"title"`
	PublicationDate time.Time     `gorm:"column:publication_date;type:date;not null;index:idx_editions_date_category" json:"-"`
	CategoryID      int64         `gorm:"column:category_id;not null;index:idx_editions_date_category" json:"category_id"`
	Description     *string       `gorm:"column:description;type:text" json:"description"`
	Status          EditionStatus `gorm:"column:status;size:16;not null;default:private;index" json:"status"`
	StatusReason    *string       `gorm:"column:status_reason;size:255" json:"status_reason,omitempty"`
	PDFPath         string        `gorm:"column:pdf_path;size:512;not null" json:"pdf_path"`
	OGThumbPath     *string       `gorm:"column:og_image_path;size:512" json:"og_image_path"`
	ListThumbPath   *string       `gorm:"column:list_thumb_path;size:512" json:"list_thumb_path"`
	PageCount       int           `gorm:"column:page_count;not null" json:"page_count"`
	FileSize        int64         `gorm:"column:file_size;not null" json:"file_size"`
	UploaderID      int64         `gorm:"column:uploader_user_id;not null" json:"uploader_user_id"`
	CreatedAt       time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Edition model
func (Edition) TableName() string {
	return "editions"
}

// EditionResponse is the read model returned by the API
type EditionResponse struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	PublicationDate string        `json:"publication_date"`
	CategoryID      int64         `json:"category_id"`
	Description     *string       `json:"description"`
	Status          EditionStatus `json:"status"`
	StatusReason    *string       `json:"status_reason,omitempty"`
	PDFPath         string        `json:"pdf_path"`
	OGThumbPath     *string       `json:"og_image_path"`
	ListThumbPath   *string       `json:"list_thumb_path"`
	PageCount       int           `json:"page_count"`
	FileSize        int64         `json:"file_size"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ToResponse converts an Edition to its API shape
func (e *Edition) ToResponse() EditionResponse {
	return EditionResponse{
		ID:              e.ID,
		Title:           e.Title,
		PublicationDate: e.PublicationDate.Format(DateLayout),
		CategoryID:      e.CategoryID,
		Description:     e.Description,
		Status:          e.Status,
		StatusReason:    e.StatusReason,
		PDFPath:         e.PDFPath,
		OGThumbPath:     e.OGThumbPath,
		ListThumbPath:   e.ListThumbPath,
		PageCount:       e.PageCount,
		FileSize:        e.FileSize,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// EditionInput carries the non-file form fields of create and edit
type EditionInput struct {
	Title           string
	PublicationDate string
	CategoryID      int64
	Description     string
	Status          string
	StatusReason    string
}

// EditionFilter narrows the public listing
type EditionFilter struct {
	Date       *time.Time
	CategoryID int64
	Limit      int
}
