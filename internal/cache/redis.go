package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/wardrobe-ledger/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "wl"
	initPingTimeout  = 3 * time.Second
)

// store 当前生效的 Redis 连接与键前缀
type store struct {
	client *redis.Client
	prefix string
}

func (s *store) key(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return s.prefix
	}
	return s.prefix + ":" + trimmed
}

// 未启用时为 nil，所有读写退化为未命中或空操作
var current atomic.Pointer[store]

// InitRedis 连接 Redis，启动时连不上则保持禁用，缓存数据都可从数据库重建
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		UseClient(nil, "")
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), initPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		UseClient(nil, "")
		return fmt.Errorf("redis ping %s failed: %w", client.Options().Addr, err)
	}
	UseClient(client, cfg.Prefix)
	return nil
}

// UseClient 直接注入客户端（测试或复用外部连接），传 nil 关闭缓存
func UseClient(client *redis.Client, prefix string) {
	if client == nil {
		current.Store(nil)
		return
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	current.Store(&store{client: client, prefix: prefix})
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return current.Load() != nil
}

// Client 获取 Redis 客户端，限流中间件直接使用
func Client() *redis.Client {
	if s := current.Load(); s != nil {
		return s.client
	}
	return nil
}

// Ping 健康检查
func Ping(ctx context.Context) error {
	s := current.Load()
	if s == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// GetJSON 读取 JSON 缓存，键不存在时 hit 为 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	s := current.Load()
	if s == nil {
		return false, nil
	}
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s := current.Load()
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), payload, ttl).Err()
}

// GetInt64 读取整数值，不存在返回 0
func GetInt64(ctx context.Context, key string) (int64, error) {
	s := current.Load()
	if s == nil {
		return 0, nil
	}
	n, err := s.client.Get(ctx, s.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Incr 自增计数
func Incr(ctx context.Context, key string) (int64, error) {
	s := current.Load()
	if s == nil {
		return 0, nil
	}
	return s.client.Incr(ctx, s.key(key)).Result()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	s := current.Load()
	if s == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(key)).Err()
}
