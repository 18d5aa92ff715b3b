package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitfantasy/eam/internal/config"
	"github.com/bitfantasy/eam/internal/inventory/entity"
	"github.com/bitfantasy/eam/internal/inventory/handler"
	"github.com/bitfantasy/eam/internal/inventory/repository"
	"github.com/bitfantasy/eam/internal/inventory/service"
	"github.com/bitfantasy/eam/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting eam service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Category{},
		&entity.Subcategory{},
		&entity.Location{},
		&entity.EquipmentLifespan{},
		&entity.UsefulLife{},
		&entity.Equipment{},
		&entity.NumberSequence{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// 分类/位置/耐用年数属于参照数据，启动时种入空表，后续走后台维护
	if err := seedReferenceData(db, zapLogger); err != nil {
		zapLogger.Fatal("Seed reference data failed", zap.Error(err))
	}

	// redis 可选，未配置时参照数据直查数据库
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = initRedis(cfg.Redis)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, reference data cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb)
	handlers := handler.NewHandlers(services, repos)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())
	r.Use(middleware.Logger(zapLogger))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(r, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited")
}

func registerRoutes(r *gin.Engine, h *handler.Handlers) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/equipments", h.Equipment.List)
		api.POST("/equipments", h.Equipment.Create)
		api.GET("/equipments/:id", h.Equipment.Get)
		api.PUT("/equipments/:id", h.Equipment.Update)
		api.PUT("/equipments/:id/location", h.Equipment.UpdateLocation)
		api.DELETE("/equipments/:id", h.Equipment.Delete)
		api.POST("/equipments/batch-delete", h.Equipment.DeleteBatch)

		api.GET("/categories", h.Reference.ListCategories)
		api.GET("/categories/:id/subcategories", h.Reference.ListSubcategories)
		api.GET("/locations", h.Reference.ListLocations)
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// 唯一索引冲突翻译成 gorm.ErrDuplicatedKey，仓库层据此识别编号冲突
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// seedReferenceData 空表时种入初始参照数据和样例台账
func seedReferenceData(db *gorm.DB, zapLogger *zap.Logger) error {
	var count int64
	if err := db.Model(&entity.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	office := entity.Category{Name: "Office Equipment", Code: "OFC"}
	it := entity.Category{Name: "IT Equipment", Code: "ITC"}
	furniture := entity.Category{Name: "Furniture", Code: "FRN"}
	for _, c := range []*entity.Category{&office, &it, &furniture} {
		if err := db.Create(c).Error; err != nil {
			return err
		}
	}

	computer := entity.Subcategory{Name: "Computer", CategoryID: it.ID}
	printer := entity.Subcategory{Name: "Printer", CategoryID: it.ID}
	desk := entity.Subcategory{Name: "Desk", CategoryID: furniture.ID}
	chair := entity.Subcategory{Name: "Chair", CategoryID: furniture.ID}
	for _, sc := range []*entity.Subcategory{&computer, &printer, &desk, &chair} {
		if err := db.Create(sc).Error; err != nil {
			return err
		}
	}

	locations := []entity.Location{
		{Code: "MO", Name: "Head Office"},
		{Code: "BR", Name: "Branch Office", ParentCode: "MO"},
	}
	if err := db.Create(&locations).Error; err != nil {
		return err
	}

	// 旧版规则：编码对；新版规则：小类ID。存量数据两套并存
	lifespans := []entity.EquipmentLifespan{
		{CategoryCode: "ITC", CategoryLabel: "IT Equipment", ItemCode: "PC", ItemLabel: "Computer", LifespanYears: 4},
		{CategoryCode: "FRN", CategoryLabel: "Furniture", ItemCode: "DK", ItemLabel: "Desk", LifespanYears: 8},
	}
	if err := db.Create(&lifespans).Error; err != nil {
		return err
	}

	usefulLives := []entity.UsefulLife{
		{SubcategoryID: computer.ID, UsefulYears: intPtr(4)},
		{SubcategoryID: printer.ID, UsefulYears: intPtr(5)},
		{SubcategoryID: desk.ID, UsefulYears: intPtr(8)},
		{SubcategoryID: chair.ID, UsefulYears: intPtr(8)},
	}
	if err := db.Create(&usefulLives).Error; err != nil {
		return err
	}

	now := time.Now()
	pc1 := entity.Equipment{
		ManagementNumber: "ITC2024-0001",
		CategoryCode:     "ITC",
		ItemCode:         "PC",
		SubcategoryID:    &computer.ID,
		Name:             "Laptop PC",
		ModelNumber:      "Model X1",
		Manufacturer:     "Tech Corp",
		Specification:    "Core i7, 16GB RAM, 512GB SSD",
		Cost:             150000,
		PurchaseDate:     datePtr(2023, 4, 1),
		Quantity:         1,
		LocationCode:     "MO",
		IsAvailableForLoan: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	desk1 := entity.Equipment{
		ManagementNumber: "FRN2023-0001",
		CategoryCode:     "FRN",
		ItemCode:         "DK",
		SubcategoryID:    &desk.ID,
		Name:             "Office Desk",
		ModelNumber:      "Office Desk Pro",
		Manufacturer:     "Furniture Co.",
		Specification:    "Wood, W1200 x D700 x H700mm",
		Cost:             45000,
		PurchaseDate:     datePtr(2022, 7, 15),
		Quantity:         5,
		LocationCode:     "BR",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(&pc1).Error; err != nil {
		return err
	}
	if err := db.Create(&desk1).Error; err != nil {
		return err
	}

	zapLogger.Info("Seeded reference data",
		zap.Int("categories", 3),
		zap.Int("subcategories", 4),
		zap.Int("locations", 2),
		zap.Int("equipment", 2),
	)
	return nil
}

func intPtr(v int) *int {
	return &v
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}
