package service

import (
	"context"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 操作员认证与账号管理
type AuthService struct {
	cfg          *config.Config
	operatorRepo repository.OperatorRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, operatorRepo repository.OperatorRepository) *AuthService {
	return &AuthService{
		cfg:          cfg,
		operatorRepo: operatorRepo,
	}
}

// CreateOperatorInput 新建操作员
type CreateOperatorInput struct {
	Username    string
	DisplayName string
	Password    string
	Role        string
}

// UpdateOperatorInput 更新操作员，nil 表示不修改
type UpdateOperatorInput struct {
	DisplayName *string
	Role        *string
	IsActive    *bool
	Password    *string
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword 校验密码是否符合策略
func (s *AuthService) ValidatePassword(password string) error {
	if s == nil || s.cfg == nil {
		return nil
	}
	return validatePassword(s.cfg.Security.PasswordPolicy, password)
}

// JWTClaims JWT 声明
type JWTClaims struct {
	OperatorID   string `json:"operator_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(operator *models.Operator) (string, time.Time, error) {
	now := time.Now()
	expireHours := s.cfg.JWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)

	claims := JWTClaims{
		OperatorID:   operator.ID,
		Username:     operator.Username,
		Role:         operator.Role,
		TokenVersion: operator.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	return ParseOperatorJWT(tokenString, s.cfg.JWT.SecretKey)
}

// ParseOperatorJWT 使用给定密钥解析操作员 Token
func ParseOperatorJWT(tokenString, secretKey string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.OperatorID != "" {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Login 操作员登录
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Operator, string, time.Time, error) {
	operator, err := s.operatorRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if operator == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(operator.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !operator.IsActive {
		return nil, "", time.Time{}, ErrOperatorDisabled
	}

	token, expiresAt, err := s.GenerateJWT(operator)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now().UTC()
	if err := s.operatorRepo.TouchLogin(operator.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	operator.LastLoginAt = &now
	_ = cache.SetOperatorAuthState(ctx, cache.BuildOperatorAuthState(operator))

	logger.Infow("operator_login", "operator_id", operator.ID, "username", operator.Username)
	return operator, token, expiresAt, nil
}

// GetOperator 获取操作员
func (s *AuthService) GetOperator(ctx context.Context, id string) (*models.Operator, error) {
	operator, err := s.operatorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if operator == nil {
		return nil, ErrNotFound
	}
	return operator, nil
}

// ListOperators 操作员列表
func (s *AuthService) ListOperators(ctx context.Context) ([]models.Operator, error) {
	return s.operatorRepo.List()
}

// CreateOperator 新建操作员
func (s *AuthService) CreateOperator(ctx context.Context, input CreateOperatorInput) (*models.Operator, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrOperatorInvalid
	}
	role, err := normalizeRole(input.Role)
	if err != nil {
		return nil, err
	}
	if err := s.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	existing, err := s.operatorRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOperatorExists
	}
	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}
	operator := &models.Operator{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.operatorRepo.Create(operator); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrOperatorExists
		}
		return nil, err
	}
	logger.Infow("operator_created", "operator_id", operator.ID, "username", username, "role", role)
	return operator, nil
}

// UpdateOperator 更新操作员；停用、改角色或重置密码都会使已签发 Token 失效
func (s *AuthService) UpdateOperator(ctx context.Context, id string, input UpdateOperatorInput) (*models.Operator, error) {
	operator, err := s.operatorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if operator == nil {
		return nil, ErrNotFound
	}

	revoke := false
	if input.DisplayName != nil {
		if name := strings.TrimSpace(*input.DisplayName); name != "" {
			operator.DisplayName = name
		}
	}
	if input.Role != nil {
		role, err := normalizeRole(*input.Role)
		if err != nil {
			return nil, err
		}
		revoke = revoke || role != operator.Role
		operator.Role = role
	}
	if input.IsActive != nil {
		revoke = revoke || (!*input.IsActive && operator.IsActive)
		operator.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if err := s.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := s.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		operator.PasswordHash = hash
		revoke = true
	}
	if revoke {
		revokeTokens(operator)
	}
	if err := s.operatorRepo.Update(operator); err != nil {
		return nil, err
	}
	_ = cache.SetOperatorAuthState(ctx, cache.BuildOperatorAuthState(operator))
	logger.Infow("operator_updated", "operator_id", operator.ID, "tokens_revoked", revoke)
	return operator, nil
}

// ChangePassword 操作员修改自己的密码
func (s *AuthService) ChangePassword(ctx context.Context, operatorID, oldPassword, newPassword string) error {
	operator, err := s.operatorRepo.GetByID(operatorID)
	if err != nil {
		return err
	}
	if operator == nil {
		return ErrNotFound
	}
	if err := s.VerifyPassword(operator.PasswordHash, oldPassword); err != nil {
		return ErrPasswordMismatch
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}
	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	operator.PasswordHash = hashedPassword
	revokeTokens(operator)
	if err := s.operatorRepo.Update(operator); err != nil {
		return err
	}
	_ = cache.SetOperatorAuthState(ctx, cache.BuildOperatorAuthState(operator))
	logger.Infow("operator_password_changed", "operator_id", operator.ID)
	return nil
}

func revokeTokens(operator *models.Operator) {
	now := time.Now().UTC()
	operator.TokenVersion++
	operator.TokenInvalidBefore = &now
}

func normalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", constants.OperatorRoleClerk:
		return constants.OperatorRoleClerk, nil
	case constants.OperatorRoleOwner:
		return constants.OperatorRoleOwner, nil
	default:
		return "", ErrInvalidRole
	}
}
