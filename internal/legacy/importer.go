// Package legacy 导入旧版 JSON 存档（data/db.json）
package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const importBatchSize = 200

// ErrAlreadySeeded 已有分类数据，跳过导入
var ErrAlreadySeeded = errors.New("database already seeded")

// Store 旧版存档结构
type Store struct {
	Categories []CategoryRecord `json:"categories"`
	Products   []ProductRecord  `json:"products"`
	Variants   []VariantRecord  `json:"variants"`
	Movements  []MovementRecord `json:"movements"`
}

// CategoryRecord 旧版分类
type CategoryRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductRecord 旧版款式
type ProductRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	BaseCode   string    `json:"baseCode"`
	CategoryID *string   `json:"categoryId"`
	Tags       []string  `json:"tags"`
	ImageURL   *string   `json:"imageUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// VariantRecord 旧版变体，qty 为期初数量
type VariantRecord struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Qty       int             `json:"qty"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
	SKU       string          `json:"sku"`
}

// MovementRecord 旧版库存流水
type MovementRecord struct {
	ID        string              `json:"id"`
	VariantID string              `json:"variantId"`
	Type      string              `json:"type"`
	Qty       int                 `json:"qty"`
	UnitCost  decimal.NullDecimal `json:"unitCost"`
	Note      *string             `json:"note"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Result 导入统计
type Result struct {
	Categories int
	Products   int
	Variants   int
	Movements  int
}

// LoadFile 读取存档文件
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var store Store
	if err := json.Unmarshal(raw, &store); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &store, nil
}

// Import 在没有分类数据时写入存档，保留原主键与时间
func Import(db *gorm.DB, store *Store) (*Result, error) {
	if db == nil || store == nil {
		return nil, errors.New("db or store is nil")
	}
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadySeeded
	}
	if err := validateMovements(store.Movements); err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(store.Categories))
	inactiveCategoryIDs := make([]string, 0)
	for _, item := range store.Categories {
		if !item.IsActive {
			inactiveCategoryIDs = append(inactiveCategoryIDs, item.ID)
		}
		categories = append(categories, models.Category{
			ID:        item.ID,
			Name:      item.Name,
			IsActive:  item.IsActive,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	products := make([]models.Product, 0, len(store.Products))
	for _, item := range store.Products {
		tags := models.StringArray(item.Tags)
		if tags == nil {
			tags = models.StringArray{}
		}
		products = append(products, models.Product{
			ID:         item.ID,
			Name:       item.Name,
			BaseCode:   item.BaseCode,
			CategoryID: item.CategoryID,
			Tags:       tags,
			ImageURL:   item.ImageURL,
			CreatedAt:  item.CreatedAt,
			UpdatedAt:  item.UpdatedAt,
		})
	}
	variants := make([]models.Variant, 0, len(store.Variants))
	for _, item := range store.Variants {
		sku := strings.TrimSpace(item.SKU)
		if sku == "" {
			sku = models.BuildSKU(baseCodeOf(store.Products, item.ProductID), item.Color, item.Size)
		}
		variants = append(variants, models.Variant{
			ID:        item.ID,
			ProductID: item.ProductID,
			Color:     item.Color,
			Size:      item.Size,
			BaseQty:   item.Qty,
			CostPrice: models.NewCostFromDecimal(item.CostPrice),
			SalePrice: models.NewMoneyFromDecimal(item.SalePrice),
			SKU:       sku,
		})
	}
	movements := make([]models.StockMovement, 0, len(store.Movements))
	for _, item := range store.Movements {
		movement := models.StockMovement{
			ID:        item.ID,
			VariantID: item.VariantID,
			Type:      strings.ToUpper(item.Type),
			Qty:       item.Qty,
			Note:      item.Note,
			CreatedAt: item.CreatedAt,
		}
		if item.UnitCost.Valid {
			cost := models.NewCostFromDecimal(item.UnitCost.Decimal)
			movement.UnitCost = &cost
		}
		movements = append(movements, movement)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if len(categories) > 0 {
			if err := tx.CreateInBatches(&categories, importBatchSize).Error; err != nil {
				return fmt.Errorf("import categories: %w", err)
			}
		}
		// is_active 带默认值，false 会被插入为 true
		if len(inactiveCategoryIDs) > 0 {
			if err := tx.Model(&models.Category{}).Where("id IN ?", inactiveCategoryIDs).Update("is_active", false).Error; err != nil {
				return fmt.Errorf("import categories: %w", err)
			}
		}
		if len(products) > 0 {
			if err := tx.CreateInBatches(&products, importBatchSize).Error; err != nil {
				return fmt.Errorf("import products: %w", err)
			}
		}
		if len(variants) > 0 {
			if err := tx.CreateInBatches(&variants, importBatchSize).Error; err != nil {
				return fmt.Errorf("import variants: %w", err)
			}
		}
		if len(movements) > 0 {
			if err := tx.CreateInBatches(&movements, importBatchSize).Error; err != nil {
				return fmt.Errorf("import movements: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Categories: len(categories),
		Products:   len(products),
		Variants:   len(variants),
		Movements:  len(movements),
	}
	logger.Infow("legacy_import_done",
		"categories", result.Categories,
		"products", result.Products,
		"variants", result.Variants,
		"movements", result.Movements,
	)
	return result, nil
}

func validateMovements(items []MovementRecord) error {
	for _, item := range items {
		switch strings.ToUpper(item.Type) {
		case constants.MovementTypeIn, constants.MovementTypeOut, constants.MovementTypeReturn, constants.MovementTypeAdjust:
		default:
			return fmt.Errorf("movement %s: unknown type %q", item.ID, item.Type)
		}
	}
	return nil
}

func baseCodeOf(products []ProductRecord, productID string) string {
	for _, product := range products {
		if product.ID == productID {
			return product.BaseCode
		}
	}
	return ""
}
