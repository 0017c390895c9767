package router

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/i18n"
	"github.com/wardrobe-ledger/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// 登录请求体很小，超过此长度不解析用户名
const maxKeyBodyBytes = 4 << 10

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
	WriteOnly     bool // 只计写请求，查询不受限
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) key(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return r.Prefix + ":" + raw
}

// 返回 {窗口内计数, 剩余秒数}
var fixedWindowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("TTL", KEYS[1])}
`)

// RateLimitMiddleware Redis 固定窗口限流；Redis 不可用时放行并记录告警，不阻塞收银
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() || (rule.WriteOnly && isReadMethod(c.Request.Method)) {
			c.Next()
			return
		}

		raw := strings.TrimSpace(keyFunc(c))
		if raw == "" {
			raw = c.ClientIP()
		}
		key := rule.key(raw)

		counters, err := fixedWindowScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Int64Slice()
		if err != nil || len(counters) < 2 {
			logger.Warnw("rate_limit_check_failed", "key", key, "error", err)
			c.Next()
			return
		}

		if count := counters[0]; count > int64(rule.MaxRequests) {
			wait := int(counters[1])
			if wait < 1 {
				wait = max(rule.WindowSeconds, 1)
			}
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.rate_limited"
			}
			logger.Warnw("rate_limited", "key", key, "count", count, "retry_after", wait)
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, wait))
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByOperator 已登录操作员按账号限流，未登录回退到 IP
func KeyByOperator(c *gin.Context) string {
	if operatorID := strings.TrimSpace(c.GetString(handlershared.ContextOperatorID)); operatorID != "" {
		return "op:" + operatorID
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 按 JSON 字段（如登录用户名）加 IP 限流，读取后还原请求体
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(readJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func isReadMethod(method string) bool {
	switch strings.ToUpper(method) {
	case "GET", "HEAD", "OPTIONS":
		return true
	}
	return false
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxKeyBodyBytes+1))
	rest := c.Request.Body
	c.Request.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), rest), rest}
	if err != nil || len(body) == 0 || len(body) > maxKeyBodyBytes {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
