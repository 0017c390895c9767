package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/authz"
	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/config"
	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/i18n"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/repository"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "Accept-Language", requestIDHeader}
)

// corsPolicy 预先计算好的跨域响应头
type corsPolicy struct {
	anyOrigin        bool
	origins          map[string]struct{}
	allowCredentials bool
	methods          string
	headers          string
	maxAge           string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	policy := corsPolicy{
		origins:          make(map[string]struct{}, len(cfg.AllowedOrigins)),
		allowCredentials: cfg.AllowCredentials,
		methods:          strings.Join(fallbackList(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:          strings.Join(fallbackList(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	for _, origin := range fallbackList(cfg.AllowedOrigins, []string{"*"}) {
		origin = strings.ToLower(strings.TrimSpace(origin))
		if origin == "*" {
			policy.anyOrigin = true
			continue
		}
		if origin != "" {
			policy.origins[origin] = struct{}{}
		}
	}
	if cfg.MaxAge > 0 {
		policy.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return policy
}

// allowOrigin 返回 Access-Control-Allow-Origin 的取值，空串表示不放行
// 携带凭证时不能回写 *，只能回写请求来源
func (p corsPolicy) allowOrigin(origin string) string {
	if p.anyOrigin {
		if p.allowCredentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	if _, ok := p.origins[strings.ToLower(origin)]; ok {
		return origin
	}
	return ""
}

func fallbackList(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if origin := policy.allowOrigin(c.GetHeader("Origin")); origin != "" {
			header.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if policy.allowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Methods", policy.methods)
		header.Set("Access-Control-Allow-Headers", policy.headers)
		header.Set("Access-Control-Expose-Headers", requestIDHeader)
		if policy.maxAge != "" {
			header.Set("Access-Control-Max-Age", policy.maxAge)
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 沿用上游传入的 X-Request-ID，否则生成新的
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(response.RequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 请求日志，按响应的 HTTP 状态选择级别
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", c.GetString(response.RequestIDKey),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if operatorID := c.GetString(handlershared.ContextOperatorID); operatorID != "" {
			fields = append(fields, "operator_id", operatorID)
		}
		switch {
		case len(c.Errors) > 0:
			sugar.Errorw("http_request", append(fields, "errors", c.Errors.String())...)
		case status >= 500:
			sugar.Errorw("http_request", fields...)
		case status >= 400:
			sugar.Warnw("http_request", fields...)
		default:
			sugar.Infow("http_request", fields...)
		}
	}
}

// JWTAuthMiddleware 操作员 JWT 鉴权中间件
// 角色取自鉴权快照或数据库，不信任 token 中的角色
func JWTAuthMiddleware(secretKey string, operatorRepo repository.OperatorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		if operatorRepo == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "error.auth_header_missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}

		claims, err := service.ParseOperatorJWT(strings.TrimSpace(parts[1]), secretKey)
		if err != nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		if cached, hit, cacheErr := cache.GetOperatorAuthState(c.Request.Context(), claims.OperatorID); cacheErr == nil && hit && cached != nil {
			if !cached.IsActive {
				abortUnauthorized(c, "error.operator_disabled")
				return
			}
			if claims.TokenVersion != cached.TokenVersion || !isIssuedAfterInvalidBeforeUnix(claims.IssuedAt, cached.TokenInvalidBefore) {
				abortUnauthorized(c, "error.token_revoked")
				return
			}
			setOperatorContext(c, claims.OperatorID, cached.Username, cached.Role)
			c.Next()
			return
		}

		operator, err := operatorRepo.GetByID(claims.OperatorID)
		if err != nil || operator == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if !operator.IsActive {
			abortUnauthorized(c, "error.operator_disabled")
			return
		}
		if claims.TokenVersion != operator.TokenVersion || !isIssuedAfterInvalidBefore(claims.IssuedAt, operator.TokenInvalidBefore) {
			abortUnauthorized(c, "error.token_revoked")
			return
		}
		_ = cache.SetOperatorAuthState(c.Request.Context(), cache.BuildOperatorAuthState(operator))

		setOperatorContext(c, operator.ID, operator.Username, operator.Role)
		c.Next()
	}
}

func setOperatorContext(c *gin.Context, operatorID, username, role string) {
	c.Set(handlershared.ContextOperatorID, operatorID)
	c.Set(handlershared.ContextUsername, username)
	c.Set(handlershared.ContextRole, role)
}

func abortUnauthorized(c *gin.Context, key string) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	response.Unauthorized(c, msg)
	c.Abort()
}

// RBACMiddleware 按操作员角色做接口级鉴权
func RBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		operatorID := c.GetString(handlershared.ContextOperatorID)
		role := c.GetString(handlershared.ContextRole)
		if operatorID == "" {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceOperator(operatorID, role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("rbac_enforce_failed",
				"operator_id", operatorID,
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("rbac_permission_denied",
				"operator_id", operatorID,
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			msg := i18n.T(i18n.ResolveLocale(c), "error.forbidden")
			response.Forbidden(c, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

func isIssuedAfterInvalidBefore(issuedAt *jwt.NumericDate, invalidBefore *time.Time) bool {
	if invalidBefore == nil {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBefore.Unix()
}

func isIssuedAfterInvalidBeforeUnix(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBeforeUnix
}
