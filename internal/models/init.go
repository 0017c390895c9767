package models

import (
	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultOwnerUsername = "owner"
	defaultOwnerPassword = "owner123"
)

// InitDefaultOperator 首次启动时创建店主账号
func InitDefaultOperator(username, password string) error {
	var count int64
	if err := DB.Model(&Operator{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if username == "" {
		username = defaultOwnerUsername
	}
	if password == "" {
		password = defaultOwnerPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	operator := Operator{
		Username:     username,
		DisplayName:  "店主",
		PasswordHash: string(hash),
		Role:         constants.OperatorRoleOwner,
		IsActive:     true,
	}
	if err := DB.Create(&operator).Error; err != nil {
		return err
	}

	if password == defaultOwnerPassword {
		logger.Warnw("default_owner_created_with_default_password", "username", username)
		logger.Warnw("default_owner_password_change_required", "username", username)
	} else {
		logger.Warnw("default_owner_created", "username", username, "password_hidden", true)
	}
	return nil
}

// SeedDefaultDictionaries 分类、尺码为空时写入默认值
func SeedDefaultDictionaries() error {
	var categoryCount int64
	if err := DB.Model(&Category{}).Count(&categoryCount).Error; err != nil {
		return err
	}
	if categoryCount == 0 {
		rows := make([]Category, 0, len(constants.DefaultCategoryNames))
		for _, name := range constants.DefaultCategoryNames {
			rows = append(rows, Category{Name: name, IsActive: true})
		}
		if err := DB.Create(&rows).Error; err != nil {
			return err
		}
		logger.Infow("default_categories_seeded", "count", len(rows))
	}

	var sizeCount int64
	if err := DB.Model(&Size{}).Count(&sizeCount).Error; err != nil {
		return err
	}
	if sizeCount == 0 {
		rows := make([]Size, 0, len(constants.DefaultSizeNames))
		for _, name := range constants.DefaultSizeNames {
			rows = append(rows, Size{Name: name, IsActive: true})
		}
		if err := DB.Create(&rows).Error; err != nil {
			return err
		}
		logger.Infow("default_sizes_seeded", "count", len(rows))
	}
	return nil
}
