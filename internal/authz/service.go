package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wardrobe-ledger/internal/constants"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	operatorPrefix  = "operator:"
	rolePrefix      = "role:"
)

// 请求主体为 role:<name> 或 operator:<id>，路径按 keyMatch2 匹配，p.act 为 * 时匹配任意方法
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	ErrUnavailable     = errors.New("authz service unavailable")
	ErrActionRequired  = errors.New("action is required")
	ErrRoleRequired    = errors.New("role is required")
	ErrOperatorMissing = errors.New("operator id is required")
	ErrProtectedRole   = errors.New("builtin owner policies cannot be revoked")
)

// Policy 一条授权策略，Object 为去掉 /api/v1 前缀的路由模板
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service 基于 casbin 的接口级授权，策略持久化在 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务并加载已有策略
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	// 每次增删策略直接写库，无需手动 SavePolicy
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceRole 按角色判定
func (s *Service) EnforceRole(role, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	return s.enforcer.Enforce(subject, NormalizeObject(obj), NormalizeAction(act))
}

// EnforceOperator 先按角色判定，未放行时再看操作员直连策略
func (s *Service) EnforceOperator(operatorID, role, obj, act string) (bool, error) {
	if strings.TrimSpace(role) != "" {
		allowed, err := s.EnforceRole(role, obj, act)
		if err != nil || allowed {
			return allowed, err
		}
	}
	if strings.TrimSpace(operatorID) == "" {
		return false, nil
	}
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(SubjectForOperator(operatorID), NormalizeObject(obj), NormalizeAction(act))
}

// ListRoles 列出出现在策略或继承关系中的全部角色
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	subjects, err := s.enforcer.GetAllSubjects()
	if err != nil {
		return nil, fmt.Errorf("list subjects failed: %w", err)
	}
	links, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0)
	if err != nil {
		return nil, fmt.Errorf("list role links failed: %w", err)
	}
	for _, link := range links {
		subjects = append(subjects, link...)
	}
	for _, subject := range subjects {
		if strings.HasPrefix(subject, rolePrefix) {
			seen[subject] = struct{}{}
		}
	}
	roles := make([]string, 0, len(seen))
	for role := range seen {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 为角色授予策略，已存在时不报错
func (s *Service) GrantRolePolicy(role, object, action string) error {
	policy, err := s.rolePolicy(role, object, action)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略，店主的内置策略不可撤销
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	policy, err := s.rolePolicy(role, object, action)
	if err != nil {
		return err
	}
	if isBuiltinOwnerPolicy(policy) {
		return ErrProtectedRole
	}
	if _, err := s.enforcer.RemovePolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GrantOperatorPolicy 为单个操作员直连授权
func (s *Service) GrantOperatorPolicy(operatorID, object, action string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(operatorID) == "" {
		return ErrOperatorMissing
	}
	act := NormalizeAction(action)
	if act == "" {
		return ErrActionRequired
	}
	if _, err := s.enforcer.AddPolicy(SubjectForOperator(operatorID), NormalizeObject(object), act); err != nil {
		return fmt.Errorf("grant operator policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 角色自身的策略，不含继承
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return toPolicies(rules), nil
}

// GetEffectivePolicies 操作员生效策略：角色（含继承）加直连授权
func (s *Service) GetEffectivePolicies(operatorID, role string) ([]Policy, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var rules [][]string
	if strings.TrimSpace(role) != "" {
		subject, err := NormalizeRole(role)
		if err != nil {
			return nil, err
		}
		implicit, err := s.enforcer.GetImplicitPermissionsForUser(subject)
		if err != nil {
			return nil, fmt.Errorf("get implicit policies failed: %w", err)
		}
		rules = append(rules, implicit...)
	}
	if strings.TrimSpace(operatorID) != "" {
		direct, err := s.enforcer.GetFilteredPolicy(0, SubjectForOperator(operatorID))
		if err != nil {
			return nil, fmt.Errorf("get operator policies failed: %w", err)
		}
		rules = append(rules, direct...)
	}
	return toPolicies(rules), nil
}

func (s *Service) rolePolicy(role, object, action string) (Policy, error) {
	if err := s.ready(); err != nil {
		return Policy{}, err
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return Policy{}, err
	}
	act := NormalizeAction(action)
	if act == "" {
		return Policy{}, ErrActionRequired
	}
	return Policy{Subject: subject, Object: NormalizeObject(object), Action: act}, nil
}

func isBuiltinOwnerPolicy(policy Policy) bool {
	if policy.Subject != rolePrefix+constants.OperatorRoleOwner {
		return false
	}
	for _, seed := range BuiltinRoleSeeds() {
		if seed.Role != constants.OperatorRoleOwner {
			continue
		}
		for _, p := range seed.Policies {
			if NormalizeObject(p.Object) == policy.Object && NormalizeAction(p.Action) == policy.Action {
				return true
			}
		}
	}
	return false
}

func toPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	return policies
}

// SubjectForOperator operator:<id>
func SubjectForOperator(operatorID string) string {
	return operatorPrefix + strings.TrimSpace(operatorID)
}

// NormalizeRole owner / "store owner" / role:owner 统一为 role:<name>
func NormalizeRole(role string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(role), rolePrefix)
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if name == "" {
		return "", ErrRoleRequired
	}
	return rolePrefix + name, nil
}

// NormalizeObject 去掉 /api/v1 前缀，保证以 / 开头
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	return normalized
}

// NormalizeAction HTTP 方法统一大写
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
