package provider

import (
	"time"

	"github.com/wardrobe-ledger/internal/authz"
	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/queue"
	"github.com/wardrobe-ledger/internal/repository"
	"github.com/wardrobe-ledger/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OperatorRepo   repository.OperatorRepository
	CategoryRepo   repository.CategoryRepository
	SizeRepo       repository.SizeRepository
	ProductRepo    repository.ProductRepository
	VariantRepo    repository.VariantRepository
	MovementRepo   repository.MovementRepository
	SaleRepo       repository.SaleRepository
	ReturnRepo     repository.ReturnRepository
	CounterRepo    repository.CounterRepository
	ReportRepo     repository.ReportRepository
	StockAlertRepo repository.StockAlertRepository

	// Services
	AuthzService    *authz.Service
	AuthService     *service.AuthService
	Numberer        *service.DocumentNumberer
	StockNotifier   *service.StockNotifier
	LedgerService   *service.LedgerService
	StockService    *service.StockService
	SaleService     *service.SaleService
	ReturnService   *service.ReturnService
	ProductService  *service.ProductService
	CategoryService *service.CategoryService
	SizeService     *service.SizeService
	ReportService   *service.ReportService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OperatorRepo = repository.NewOperatorRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.SizeRepo = repository.NewSizeRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewVariantRepository(db)
	c.MovementRepo = repository.NewMovementRepository(db)
	c.SaleRepo = repository.NewSaleRepository(db)
	c.ReturnRepo = repository.NewReturnRepository(db)
	c.CounterRepo = repository.NewCounterRepository(db)
	c.ReportRepo = repository.NewReportRepository(db)
	c.StockAlertRepo = repository.NewStockAlertRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	inventory := c.Config.Inventory
	loc := inventory.Location()

	c.AuthService = service.NewAuthService(c.Config, c.OperatorRepo)
	c.Numberer = service.NewDocumentNumberer(service.NumberingOptions{
		Strategy:    inventory.NumberingStrategy,
		MaxAttempts: inventory.NumberingMaxAttempts,
		Location:    loc,
	}, c.CounterRepo, c.SaleRepo, c.ReturnRepo)
	c.StockNotifier = service.NewStockNotifier(c.QueueClient)

	summaryTTL := time.Duration(inventory.SummaryCacheTTLSeconds) * time.Second
	c.LedgerService = service.NewLedgerService(c.ProductRepo, c.VariantRepo, c.MovementRepo, summaryTTL)
	c.StockService = service.NewStockService(c.ProductRepo, c.VariantRepo, c.MovementRepo, c.StockAlertRepo, c.StockNotifier, inventory.LowStockThreshold)
	c.SaleService = service.NewSaleService(c.SaleRepo, c.ReturnRepo, c.VariantRepo, c.MovementRepo, c.Numberer, c.StockNotifier)
	c.ReturnService = service.NewReturnService(c.SaleRepo, c.ReturnRepo, c.VariantRepo, c.MovementRepo, c.Numberer, c.StockNotifier)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo, c.MovementRepo, c.StockNotifier, loc)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo, c.StockNotifier)
	c.SizeService = service.NewSizeService(c.SizeRepo)
	c.ReportService = service.NewReportService(c.ReportRepo, loc, c.Config.Report.TopLimitDefault)
}
