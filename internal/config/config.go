package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gituserindia/eptest-sub000/internal/domain"
	pkglogger "github.com/gituserindia/eptest-sub000/pkg/logger"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	CORS     CORSConfig     `yaml:"cors"`
	Storage  StorageConfig  `yaml:"storage"`
	S3       S3Config       `yaml:"s3"`
	Raster   RasterConfig   `yaml:"raster"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

type ServerConfig struct {
	Port int    `yaml:"port" validate:"min=1,max=65535"`
	Mode string `yaml:"mode" validate:"oneof=debug release test"`
	// RequestTimeout bounds a whole upload request (seconds)
	RequestTimeout int `yaml:"request_timeout" validate:"min=1"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host" validate:"required"`
	Port            int    `yaml:"port" validate:"min=1"`
	User            string `yaml:"user" validate:"required"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname" validate:"required"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN returns the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret" validate:"required"`
	ExpiresIn int    `yaml:"expires_in"` // seconds
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

type StorageConfig struct {
	// UploadRoot is the filesystem directory editions are written under
	UploadRoot string `yaml:"upload_root" validate:"required"`
	// WebPrefix is the URL path UploadRoot is served at
	WebPrefix string `yaml:"web_prefix" validate:"required"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket" validate:"required_if=Enabled true"`
	CDNURL          string `yaml:"cdn_url"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type RasterConfig struct {
	Engine  string `yaml:"engine" validate:"oneof=ghostscript imagemagick fitz"`
	Binary  string `yaml:"binary"`
	Density int    `yaml:"density" validate:"min=36,max=1200"`
	Quality int    `yaml:"quality" validate:"min=1,max=100"`
	Timeout int    `yaml:"timeout"` // seconds
}

// TimeoutDuration returns the rasterizer timeout
func (r RasterConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

type IngestConfig struct {
	MaxUploadBytes  int64 `yaml:"max_upload_bytes" validate:"min=1"`
	OGThumbWidth    int   `yaml:"og_thumb_width" validate:"min=1"`
	OGThumbHeight   int   `yaml:"og_thumb_height" validate:"min=1"`
	ListThumbHeight int   `yaml:"list_thumb_height" validate:"min=1"`
	ThumbQuality    int   `yaml:"thumb_quality" validate:"min=1,max=100"`
}

// IngestPolicy returns the config-level defaults that site settings may override
func (c *Config) IngestPolicy() domain.IngestPolicy {
	return domain.IngestPolicy{
		MaxUploadBytes:  c.Ingest.MaxUploadBytes,
		RasterDensity:   c.Raster.Density,
		RasterQuality:   c.Raster.Quality,
		OGThumbWidth:    c.Ingest.OGThumbWidth,
		OGThumbHeight:   c.Ingest.OGThumbHeight,
		ListThumbHeight: c.Ingest.ListThumbHeight,
		ThumbQuality:    c.Ingest.ThumbQuality,
	}
}

// Load reads a YAML config file (missing file means defaults), then env overrides, then validation
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env + defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	setInt(&cfg.Server.Port, 8080)
	setStr(&cfg.Server.Mode, "release")
	setInt(&cfg.Server.RequestTimeout, 300)

	setStr(&cfg.Database.Host, "127.0.0.1")
	setInt(&cfg.Database.Port, 3306)
	setInt(&cfg.Database.MaxIdleConns, 5)
	setInt(&cfg.Database.MaxOpenConns, 20)
	setInt(&cfg.Database.ConnMaxLifetime, 300)

	setStr(&cfg.Redis.Host, "127.0.0.1")
	setInt(&cfg.Redis.Port, 6379)
	setInt(&cfg.Redis.PoolSize, 10)

	setInt(&cfg.JWT.ExpiresIn, 8*3600)

	setStr(&cfg.Storage.UploadRoot, "public/uploads/editions")
	setStr(&cfg.Storage.WebPrefix, "/uploads/editions")

	setStr(&cfg.Raster.Engine, "ghostscript")
	setInt(&cfg.Raster.Density, 250)
	setInt(&cfg.Raster.Quality, 85)
	setInt(&cfg.Raster.Timeout, 280)

	if cfg.Ingest.MaxUploadBytes == 0 {
		cfg.Ingest.MaxUploadBytes = 50 * 1024 * 1024 // 50MB
	}
	setInt(&cfg.Ingest.OGThumbWidth, 1200)
	setInt(&cfg.Ingest.OGThumbHeight, 630)
	setInt(&cfg.Ingest.ListThumbHeight, 400)
	setInt(&cfg.Ingest.ThumbQuality, 85)
}

// applyEnv lets environment variables override file values
func applyEnv(cfg *Config) {
	envInt("SERVER_PORT", &cfg.Server.Port)
	envStr("GIN_MODE", &cfg.Server.Mode)

	envStr("DB_HOST", &cfg.Database.Host)
	envInt("DB_PORT", &cfg.Database.Port)
	envStr("DB_USER", &cfg.Database.User)
	envStr("DB_PASSWORD", &cfg.Database.Password)
	envStr("DB_NAME", &cfg.Database.DBName)

	envBool("REDIS_ENABLED", &cfg.Redis.Enabled)
	envStr("REDIS_HOST", &cfg.Redis.Host)
	envInt("REDIS_PORT", &cfg.Redis.Port)
	envStr("REDIS_PASSWORD", &cfg.Redis.Password)

	envStr("JWT_SECRET", &cfg.JWT.Secret)
	envStr("CORS_ALLOW_ORIGINS", &cfg.CORS.AllowOrigins)

	envStr("UPLOAD_ROOT", &cfg.Storage.UploadRoot)
	envStr("UPLOAD_WEB_PREFIX", &cfg.Storage.WebPrefix)

	envBool("S3_ENABLED", &cfg.S3.Enabled)
	envStr("S3_ENDPOINT", &cfg.S3.Endpoint)
	envStr("S3_REGION", &cfg.S3.Region)
	envStr("S3_ACCESS_KEY_ID", &cfg.S3.AccessKeyID)
	envStr("S3_SECRET_ACCESS_KEY", &cfg.S3.SecretAccessKey)
	envStr("S3_BUCKET", &cfg.S3.Bucket)
	envStr("S3_CDN_URL", &cfg.S3.CDNURL)

	envStr("RASTER_ENGINE", &cfg.Raster.Engine)
	envStr("RASTER_BINARY", &cfg.Raster.Binary)
}

// LogResolved logs the effective configuration with secrets masked
func LogResolved(cfg *Config) {
	pkglogger.GetLogger().Info().
		Int("port", cfg.Server.Port).
		Str("db", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)).
		Str("db_password", mask(cfg.Database.Password)).
		Bool("redis", cfg.Redis.Enabled).
		Str("upload_root", cfg.Storage.UploadRoot).
		Str("web_prefix", cfg.Storage.WebPrefix).
		Bool("s3", cfg.S3.Enabled).
		Str("raster_engine", cfg.Raster.Engine).
		Int("density", cfg.Raster.Density).
		Int("quality", cfg.Raster.Quality).
		Int64("max_upload_bytes", cfg.Ingest.MaxUploadBytes).
		Str("jwt_secret", mask(cfg.JWT.Secret)).
		Msg("config resolved")
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

func setStr(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

func setInt(p *int, def int) {
	if *p == 0 {
		*p = def
	}
}

func envStr(key string, p *string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*p = strings.TrimSpace(v)
	}
}

func envInt(key string, p *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*p = n
		}
	}
}

func envBool(key string, p *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*p = b
		}
	}
}
