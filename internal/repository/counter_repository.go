package repository

import (
	"time"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterRepository 单据日序号计数器
type CounterRepository interface {
	NextSeq(docType, dateKey string) (int, error)
	Current(docType, dateKey string) (int, error)
	WithTx(tx *gorm.DB) CounterRepository
}

// GormCounterRepository GORM 实现
type GormCounterRepository struct {
	db *gorm.DB
}

// NewCounterRepository 创建计数器仓库
func NewCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCounterRepository) WithTx(tx *gorm.DB) CounterRepository {
	if tx == nil {
		return r
	}
	return &GormCounterRepository{db: tx}
}

// NextSeq 原子递增并返回当日序号，首个单据为 1
// 需在事务内调用：upsert 持有行锁直到事务结束，同日单据编号串行分配
func (r *GormCounterRepository) NextSeq(docType, dateKey string) (int, error) {
	now := time.Now()
	row := models.DocumentCounter{
		DocType:   docType,
		DateKey:   dateKey,
		Seq:       1,
		UpdatedAt: now,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doc_type"}, {Name: "date_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"seq":        gorm.Expr("document_counters.seq + 1"),
			"updated_at": now,
		}),
	}).Create(&row).Error; err != nil {
		return 0, err
	}
	return r.Current(docType, dateKey)
}

// Current 读取当前序号，不存在返回 0
func (r *GormCounterRepository) Current(docType, dateKey string) (int, error) {
	var rows []models.DocumentCounter
	if err := r.db.Where("doc_type = ? AND date_key = ?", docType, dateKey).Limit(1).Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Seq, nil
}
