package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gituserindia/eptest-sub000/internal/config"
	"github.com/gituserindia/eptest-sub000/internal/handler"
	"github.com/gituserindia/eptest-sub000/internal/middleware"
	"github.com/gituserindia/eptest-sub000/internal/migration"
	"github.com/gituserindia/eptest-sub000/internal/raster"
	"github.com/gituserindia/eptest-sub000/internal/repository"
	"github.com/gituserindia/eptest-sub000/internal/routes"
	"github.com/gituserindia/eptest-sub000/internal/service"
	"github.com/gituserindia/eptest-sub000/internal/settings"
	"github.com/gituserindia/eptest-sub000/internal/thumbnail"
	pkgcache "github.com/gituserindia/eptest-sub000/pkg/cache"
	"github.com/gituserindia/eptest-sub000/pkg/jwt"
	pkglogger "github.com/gituserindia/eptest-sub000/pkg/logger"
	pkgredis "github.com/gituserindia/eptest-sub000/pkg/redis"
	pkgstorage "github.com/gituserindia/eptest-sub000/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath(env string) string {
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func isDevelopment(env string) bool {
	return env == "development" || env == "dev" || env == "local"
}

func main() {
	dotenvFiles := config.LoadDotEnv(".")

	// 로거 초기화
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	logger := pkglogger.GetLogger()
	logger.Info().Str("app_env", env).Strs("env_files", dotenvFiles).Msg("starting epaper admin")

	// 설정 로드
	configPath := getConfigPath(env)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)
	gin.SetMode(cfg.Server.Mode)

	// MySQL 연결
	db, err := initDB(cfg, env)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if isDevelopment(env) {
		if err := migration.Run(db); err != nil {
			logger.Warn().Err(err).Msg("auto migration failed")
		}
	}

	// Redis 연결 (선택)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(context.Background(), pkgredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("continuing without Redis")
			redisClient = nil
		} else {
			logger.Info().Msg("Connected to Redis")
		}
	}
	cacheService := pkgcache.NewService(redisClient)

	// Storage
	layout, err := pkgstorage.NewLayout(cfg.Storage.UploadRoot, cfg.Storage.WebPrefix)
	if err != nil {
		log.Fatalf("Failed to init storage layout: %v", err)
	}
	if err := os.MkdirAll(layout.Root(), 0o755); err != nil {
		log.Fatalf("Failed to create upload root: %v", err)
	}

	converter, err := raster.New(cfg.Raster.Engine, cfg.Raster.Binary, cfg.Raster.TimeoutDuration())
	if err != nil {
		log.Fatalf("Failed to init rasterizer: %v", err)
	}

	// Repositories / services
	editionRepo := repository.NewEditionRepository(db)
	categoryRepo := repository.NewCachedCategoryRepository(repository.NewCategoryRepository(db), cacheService)
	policy := settings.NewProvider(repository.NewSettingRepository(db), cacheService, cfg.IngestPolicy())

	editionService := service.NewEditionService(
		db,
		editionRepo,
		categoryRepo,
		layout,
		converter,
		thumbnail.NewImageGenerator(),
		policy,
	)

	// S3-compatible mirror (선택)
	if cfg.S3.Enabled {
		mirror, err := pkgstorage.NewS3Mirror(pkgstorage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			CDNURL:          cfg.S3.CDNURL,
			BasePath:        cfg.S3.BasePath,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("continuing without S3 mirror")
		} else {
			editionService.SetMirror(mirror)
		}
	}

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	editionHandler := handler.NewEditionHandler(editionService, policy)
	settingsHandler := handler.NewSettingsHandler(policy)

	// Gin 라우터 생성
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS 설정
	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}
		c.JSON(status, gin.H{
			"status":  dbStatus,
			"service": "epaper-admin",
			"redis":   cacheService.IsAvailable(),
			"time":    time.Now().Unix(),
		})
	})

	// 업로드된 에디션 정적 서빙
	router.Static(layout.WebPrefix(), layout.Root())

	routes.Setup(router, editionHandler, settingsHandler, jwtManager)

	stopGauge := watchDBPool(db)
	defer stopGauge()

	timeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout + 10*time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// 진행 중인 업로드가 끝날 때까지 대기
	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func splitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// watchDBPool reports in-use connections to the metrics gauge
func watchDBPool(db *gorm.DB) func() {
	sqlDB, err := db.DB()
	if err != nil {
		return func() {}
	}
	ticker := time.NewTicker(15 * time.Second)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				middleware.SetDBConnectionsActive(float64(sqlDB.Stats().InUse))
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

// initDB MySQL 연결 초기화
func initDB(cfg *config.Config, env string) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}

	logLevel := gormlogger.Warn
	if isDevelopment(env) {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
