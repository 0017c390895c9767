package main

import (
	"errors"
	"flag"

	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/legacy"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"
)

func main() {
	var dataPath string
	flag.StringVar(&dataPath, "data", "data/db.json", "旧版 JSON 存档路径")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(models.DBOptions{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
		},
		Logger: logger.NewGormLogger(cfg.Log.SQLLevel),
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	store, err := legacy.LoadFile(dataPath)
	if err != nil {
		stdLog.Printf("Legacy store not loaded (%v), seeding defaults", err)
		seedDefaults(stdLog.Fatalf)
		return
	}

	result, err := legacy.Import(models.DB, store)
	switch {
	case errors.Is(err, legacy.ErrAlreadySeeded):
		stdLog.Printf("Database already seeded.")
		seedDefaults(stdLog.Fatalf)
	case err != nil:
		stdLog.Fatalf("Import failed: %v", err)
	default:
		stdLog.Printf("Import complete: %d categories, %d products, %d variants, %d movements",
			result.Categories, result.Products, result.Variants, result.Movements)
		// 存档没有尺码字典
		seedDefaults(stdLog.Fatalf)
	}
}

func seedDefaults(fatalf func(format string, v ...interface{})) {
	if err := models.SeedDefaultDictionaries(); err != nil {
		fatalf("Failed to seed dictionaries: %v", err)
	}
}
