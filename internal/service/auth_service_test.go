package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) *AuthService {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Operator{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireLetter: true, RequireNumber: true},
		},
	}
	return NewAuthService(cfg, repository.NewOperatorRepository(db))
}

func TestAuthServiceLoginAndParse(t *testing.T) {
	svc := setupAuthServiceTest(t)
	ctx := context.Background()
	operator, err := svc.CreateOperator(ctx, CreateOperatorInput{Username: " alice ", Password: "secret123", Role: "owner"})
	if err != nil {
		t.Fatalf("create operator failed: %v", err)
	}
	if operator.Username != "alice" || operator.DisplayName != "alice" || operator.Role != constants.OperatorRoleOwner {
		t.Fatalf("unexpected operator %+v", operator)
	}

	if _, _, _, err := svc.Login(ctx, "alice", "wrong-pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	logged, token, expiresAt, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if logged.LastLoginAt == nil || !expiresAt.After(time.Now()) {
		t.Fatalf("unexpected login result %+v expires=%s", logged, expiresAt)
	}
	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.OperatorID != operator.ID || claims.Role != constants.OperatorRoleOwner || claims.TokenVersion != 0 {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := ParseOperatorJWT(token, "other-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token with wrong secret, got %v", err)
	}
}

func TestAuthServiceDisabledOperator(t *testing.T) {
	svc := setupAuthServiceTest(t)
	ctx := context.Background()
	operator, err := svc.CreateOperator(ctx, CreateOperatorInput{Username: "bob", Password: "secret123"})
	if err != nil {
		t.Fatalf("create operator failed: %v", err)
	}
	if operator.Role != constants.OperatorRoleClerk {
		t.Fatalf("default role should be clerk, got %s", operator.Role)
	}
	inactive := false
	updated, err := svc.UpdateOperator(ctx, operator.ID, UpdateOperatorInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update operator failed: %v", err)
	}
	if updated.TokenVersion != 1 || updated.TokenInvalidBefore == nil {
		t.Fatalf("disabling should revoke tokens, got version=%d", updated.TokenVersion)
	}
	if _, _, _, err := svc.Login(ctx, "bob", "secret123"); !errors.Is(err, ErrOperatorDisabled) {
		t.Fatalf("expected operator disabled, got %v", err)
	}
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc := setupAuthServiceTest(t)
	ctx := context.Background()
	operator, err := svc.CreateOperator(ctx, CreateOperatorInput{Username: "carol", Password: "secret123"})
	if err != nil {
		t.Fatalf("create operator failed: %v", err)
	}

	if err := svc.ChangePassword(ctx, operator.ID, "bad-old-1", "newpass456"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected password mismatch, got %v", err)
	}
	if err := svc.ChangePassword(ctx, operator.ID, "secret123", "short1"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, operator.ID, "secret123", "onlyletters"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password without number, got %v", err)
	}
	if err := svc.ChangePassword(ctx, operator.ID, "secret123", "newpass456"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	reloaded, err := svc.GetOperator(ctx, operator.ID)
	if err != nil {
		t.Fatalf("get operator failed: %v", err)
	}
	if reloaded.TokenVersion != 1 {
		t.Fatalf("password change should bump token version, got %d", reloaded.TokenVersion)
	}
	if _, _, _, err := svc.Login(ctx, "carol", "newpass456"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestAuthServiceCreateOperatorValidation(t *testing.T) {
	svc := setupAuthServiceTest(t)
	ctx := context.Background()
	if _, err := svc.CreateOperator(ctx, CreateOperatorInput{Username: "dave", Password: "secret123"}); err != nil {
		t.Fatalf("create operator failed: %v", err)
	}
	cases := []struct {
		name  string
		input CreateOperatorInput
		want  error
	}{
		{name: "duplicate", input: CreateOperatorInput{Username: "dave", Password: "secret123"}, want: ErrOperatorExists},
		{name: "blank username", input: CreateOperatorInput{Username: " ", Password: "secret123"}, want: ErrOperatorInvalid},
		{name: "bad role", input: CreateOperatorInput{Username: "erin", Password: "secret123", Role: "admin"}, want: ErrInvalidRole},
		{name: "weak password", input: CreateOperatorInput{Username: "erin", Password: "123"}, want: ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateOperator(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
