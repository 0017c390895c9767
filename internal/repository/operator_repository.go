package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
)

// OperatorRepository 操作员数据访问接口
type OperatorRepository interface {
	GetByUsername(username string) (*models.Operator, error)
	GetByID(id string) (*models.Operator, error)
	List() ([]models.Operator, error)
	Create(operator *models.Operator) error
	Update(operator *models.Operator) error
	TouchLogin(id string, at time.Time) error
}

// GormOperatorRepository GORM 实现
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository 创建操作员仓库
func NewOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// GetByUsername 根据用户名获取操作员
func (r *GormOperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.Where("username = ?", strings.TrimSpace(username)).First(&operator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// GetByID 根据 ID 获取操作员
func (r *GormOperatorRepository) GetByID(id string) (*models.Operator, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var operator models.Operator
	if err := r.db.Where("id = ?", id).First(&operator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// List 获取操作员列表
func (r *GormOperatorRepository) List() ([]models.Operator, error) {
	operators := make([]models.Operator, 0)
	if err := r.db.Order("created_at ASC").Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

// Create 创建操作员
func (r *GormOperatorRepository) Create(operator *models.Operator) error {
	return r.db.Create(operator).Error
}

// Update 更新操作员
func (r *GormOperatorRepository) Update(operator *models.Operator) error {
	return r.db.Save(operator).Error
}

// TouchLogin 记录最后登录时间
func (r *GormOperatorRepository) TouchLogin(id string, at time.Time) error {
	return r.db.Model(&models.Operator{}).Where("id = ?", id).Update("last_login_at", at).Error
}
