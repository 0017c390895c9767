package cache

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	UseClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() {
		UseClient(nil, "")
	})
	return mr
}

func TestDisabledCacheIsNoop(t *testing.T) {
	UseClient(nil, "")
	ctx := context.Background()

	var dest map[string]int
	hit, err := GetJSON(ctx, "missing", &dest)
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))
	n, err := Incr(ctx, "counter")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestStockSummaryVersioning(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	before, err := StockVersion(ctx)
	require.NoError(t, err)
	payload := map[string]int{"total_qty": 9}
	require.NoError(t, SetStockSummary(ctx, before, "", "tee", payload, time.Minute))

	var got map[string]int
	hit, err := GetStockSummary(ctx, before, "", " TEE ", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 9, got["total_qty"])

	version, err := BumpStockVersion(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, version)
	require.True(t, mr.Exists("test:stock:version"))

	got = nil
	hit, err = GetStockSummary(ctx, version, "", "tee", &got)
	require.NoError(t, err)
	require.False(t, hit, "bumped version must miss old summary")

	// 读库期间版本被递增：按旧版本写入的结果不能出现在新版本下
	require.NoError(t, SetStockSummary(ctx, before, "", "tee", payload, time.Minute))
	hit, err = GetStockSummary(ctx, version, "", "tee", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestStockSummaryKeyStable(t *testing.T) {
	a := StockSummaryKey(3, "cat-1", "Tee")
	b := StockSummaryKey(3, " cat-1 ", "tee ")
	require.Equal(t, a, b)
	require.NotEqual(t, a, StockSummaryKey(4, "cat-1", "tee"))
	require.NotEqual(t, a, StockSummaryKey(3, "cat-2", "tee"))
}

func TestOperatorAuthStateRoundTrip(t *testing.T) {
	setupMiniRedis(t)
	ctx := context.Background()

	invalidBefore := time.Unix(1700000000, 0)
	operator := &models.Operator{
		ID:                 "op-1",
		Username:           "clerk01",
		Role:               "clerk",
		IsActive:           true,
		TokenVersion:       2,
		TokenInvalidBefore: &invalidBefore,
	}
	state := BuildOperatorAuthState(operator)
	require.NoError(t, SetOperatorAuthState(ctx, state))

	got, hit, err := GetOperatorAuthState(ctx, "op-1")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, uint64(2), got.TokenVersion)
	require.Equal(t, invalidBefore.Unix(), got.TokenInvalidBefore)
	require.Equal(t, "clerk", got.Role)

	require.NoError(t, DelOperatorAuthState(ctx, "op-1"))
	_, hit, err = GetOperatorAuthState(ctx, "op-1")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestInitRedisDisabledOrUnreachable(t *testing.T) {
	require.NoError(t, InitRedis(nil))
	require.False(t, Enabled())

	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	require.NoError(t, InitRedis(&config.RedisConfig{Enabled: true, Host: host, Port: portNum, Prefix: "shop"}))
	t.Cleanup(func() { UseClient(nil, "") })
	require.True(t, Enabled())
	require.NoError(t, SetJSON(context.Background(), "k", 1, time.Minute))
	require.True(t, mr.Exists("shop:k"))

	mr.Close()
	err = InitRedis(&config.RedisConfig{Enabled: true, Host: host, Port: portNum})
	require.Error(t, err)
	require.False(t, Enabled(), "unreachable redis keeps cache disabled")
}
