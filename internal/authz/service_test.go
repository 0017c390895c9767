package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceRoleWithPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("viewer", "/products/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceRole("viewer", "/api/v1/products/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceRole("viewer", "/api/v1/products/42", "DELETE")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	if err := svc.RevokeRolePolicy("viewer", "/products/:id", "GET"); err != nil {
		t.Fatalf("revoke role policy failed: %v", err)
	}
	allow, err = svc.EnforceRole("viewer", "/api/v1/products/42", "GET")
	if err != nil {
		t.Fatalf("enforce after revoke failed: %v", err)
	}
	if allow {
		t.Fatalf("expected revoked policy deny")
	}
}

func TestEnforceOperatorDirectPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.GrantOperatorPolicy("op-1", "/reports/*", "GET"); err != nil {
		t.Fatalf("grant operator policy failed: %v", err)
	}

	allow, err := svc.EnforceOperator("op-1", "clerk", "/api/v1/reports/sales", "GET")
	if err != nil {
		t.Fatalf("enforce operator failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected direct policy allow")
	}

	allow, err = svc.EnforceOperator("op-2", "clerk", "/api/v1/reports/sales", "GET")
	if err != nil {
		t.Fatalf("enforce other operator failed: %v", err)
	}
	if allow {
		t.Fatalf("expected clerk without direct policy deny")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/sales/:id", want: "/sales/:id"},
		{in: "/sales/:id", want: "/sales/:id"},
		{in: "stock/summary", want: "/stock/summary"},
		{in: "/api/v1", want: "/"},
		{in: "/api/v1x", want: "/api/v1x"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	if got, _ := NormalizeRole("role:clerk"); got != "role:clerk" {
		t.Fatalf("prefixed role should be kept, got %s", got)
	}
	got, err := NormalizeRole(" store owner ")
	if err != nil {
		t.Fatalf("normalize role failed: %v", err)
	}
	if got != "role:store_owner" {
		t.Fatalf("normalize role want role:store_owner got %s", got)
	}
	if _, err := NormalizeRole("  "); err == nil {
		t.Fatalf("expected blank role rejected")
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 重复执行不报错
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles twice failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:owner": true,
		"role:clerk": true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	cases := []struct {
		role   string
		path   string
		method string
		want   bool
	}{
		{role: "clerk", path: "/api/v1/sales", method: "POST", want: true},
		{role: "clerk", path: "/api/v1/sales/abc", method: "GET", want: true},
		{role: "clerk", path: "/api/v1/sales/abc", method: "DELETE", want: false},
		{role: "clerk", path: "/api/v1/returns", method: "POST", want: true},
		{role: "clerk", path: "/api/v1/stock/summary", method: "GET", want: true},
		{role: "clerk", path: "/api/v1/stock/batch-in", method: "POST", want: true},
		{role: "clerk", path: "/api/v1/products", method: "POST", want: false},
		{role: "clerk", path: "/api/v1/reports/sales", method: "GET", want: false},
		{role: "clerk", path: "/api/v1/operators", method: "GET", want: false},
		{role: "owner", path: "/api/v1/products/abc", method: "DELETE", want: true},
		{role: "owner", path: "/api/v1/reports/top-products", method: "GET", want: true},
		{role: "owner", path: "/api/v1/operators/1", method: "PATCH", want: true},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.path, tc.method)
		if err != nil {
			t.Fatalf("enforce %s %s %s failed: %v", tc.role, tc.method, tc.path, err)
		}
		if allow != tc.want {
			t.Fatalf("enforce %s %s %s want %v got %v", tc.role, tc.method, tc.path, tc.want, allow)
		}
	}
}

func TestRevokeProtectsOwnerPolicies(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.RevokeRolePolicy("owner", "/*", "*"); !errors.Is(err, ErrProtectedRole) {
		t.Fatalf("owner wildcard should be protected, got %v", err)
	}
	allow, err := svc.EnforceRole("owner", "/api/v1/operators", "POST")
	if err != nil || !allow {
		t.Fatalf("owner should keep access, allow=%v err=%v", allow, err)
	}

	if err := svc.GrantRolePolicy("clerk", "/reports/daily", "GET"); err != nil {
		t.Fatalf("grant clerk policy failed: %v", err)
	}
	if err := svc.RevokeRolePolicy("role:clerk", "/api/v1/reports/daily", "get"); err != nil {
		t.Fatalf("revoke clerk policy failed: %v", err)
	}
	policies, err := svc.GetRolePolicies("clerk")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	for _, p := range policies {
		if p.Object == "/reports/daily" {
			t.Fatalf("revoked policy still present: %v", p)
		}
	}
}

func TestGetEffectivePoliciesMergesRoleAndOperator(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.GrantOperatorPolicy("op-7", "/reports/sales", "GET"); err != nil {
		t.Fatalf("grant operator policy failed: %v", err)
	}
	policies, err := svc.GetEffectivePolicies("op-7", "clerk")
	if err != nil {
		t.Fatalf("effective policies failed: %v", err)
	}
	var hasSales, hasReport bool
	for _, p := range policies {
		if p.Object == "/sales" && p.Action == "POST" {
			hasSales = true
		}
		if p.Subject == "operator:op-7" && p.Object == "/reports/sales" {
			hasReport = true
		}
	}
	if !hasSales || !hasReport {
		t.Fatalf("effective policies incomplete: %+v", policies)
	}
}

func TestNilServiceUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.EnforceRole("owner", "/sales", "GET"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil service should be unavailable, got %v", err)
	}
}
