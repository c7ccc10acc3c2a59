package domain

import "time"

// Setting key-value site setting
// Table: site_settings
type Setting struct {
	Key       string    `gorm:"column:setting_key;primaryKey;size:64" json:"key"`
	Value     string    `gorm:"column:setting_value;type:text" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Setting model
func (Setting) TableName() string {
	return "site_settings"
}

// IngestPolicy is the resolved set of knobs applied to one ingestion
type IngestPolicy struct {
	MaxUploadBytes  int64 `json:"max_upload_bytes"`
	RasterDensity   int   `json:"raster_density"`
	RasterQuality   int   `json:"raster_quality"`
	OGThumbWidth    int   `json:"og_thumb_width"`
	OGThumbHeight   int   `json:"og_thumb_height"`
	ListThumbHeight int   `json:"list_thumb_height"`
	ThumbQuality    int   `json:"thumb_quality"`
}
