package authz

import (
	"fmt"

	"github.com/wardrobe-ledger/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.OperatorRoleClerk,
			Policies: []Policy{
				{Object: "/me", Action: "GET"},
				{Object: "/me/password", Action: "PUT"},
				{Object: "/authz/me", Action: "GET"},
				{Object: "/categories", Action: "GET"},
				{Object: "/sizes", Action: "GET"},
				{Object: "/products", Action: "GET"},
				{Object: "/products/:id", Action: "GET"},
				{Object: "/stock/summary", Action: "GET"},
				{Object: "/stock/movements", Action: "GET"},
				{Object: "/stock/movements", Action: "POST"}, // 仅入库，调整由 handler 拦截
				{Object: "/stock/receive", Action: "POST"},
				{Object: "/stock/batch-in", Action: "POST"},
				{Object: "/sales", Action: "GET"},
				{Object: "/sales", Action: "POST"},
				{Object: "/sales/:id", Action: "GET"},
				{Object: "/returns", Action: "GET"},
				{Object: "/returns", Action: "POST"},
				{Object: "/returns/:id", Action: "GET"},
			},
		},
		{
			Role:     constants.OperatorRoleOwner,
			Inherits: []string{constants.OperatorRoleClerk},
			Policies: []Policy{
				{Object: "/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色的继承关系与策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role %s to %s failed: %w", role, parentRole, err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return ErrActionRequired
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
