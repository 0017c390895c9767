package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/wardrobe-ledger/internal/app"
	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	mode, err := app.ParseMode(mode)
	if err != nil {
		stdLog.Fatalf("启动模式无效: %v", err)
	}

	if cfg.Server.Mode == "release" {
		if isWeakSecret(cfg.JWT.SecretKey) {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
	} else if isWeakSecret(cfg.JWT.SecretKey) {
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	// 初始化数据库
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
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 迁移与初始数据只在 API 进程执行，worker 只消费任务
	if mode != app.ModeWorker {
		if err := models.AutoMigrate(); err != nil {
			stdLog.Fatalf("数据库迁移失败: %v", err)
		}

		defaultOwnerUser := os.Getenv("WL_DEFAULT_OWNER_USERNAME")
		defaultOwnerPass := os.Getenv("WL_DEFAULT_OWNER_PASSWORD")
		if cfg.Server.Mode == "release" && defaultOwnerPass == "" {
			stdLog.Printf("警告: 未设置 WL_DEFAULT_OWNER_PASSWORD，已跳过默认店主初始化")
		} else if err := models.InitDefaultOperator(defaultOwnerUser, defaultOwnerPass); err != nil {
			stdLog.Printf("警告: 初始化默认店主失败: %v", err)
		}

		if err := models.SeedDefaultDictionaries(); err != nil {
			stdLog.Printf("警告: 初始化默认分类与尺码失败: %v", err)
		}
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiCyan + ansiBold + "Wardrobe Ledger" + ansiReset)
	fmt.Println(ansiDim + "服装库存 / 收银后台" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
