package queue

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 报表等非紧急任务
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 库存变动后续处理
	CriticalQueue = constants.QueueCritical

	stockChangedTimeout = 30 * time.Second
	dailyDigestTimeout  = 2 * time.Minute
	// 同一天的摘要任务在保留期内只入队一次
	dailyDigestRetention = 24 * time.Hour
)

// Client asynq 客户端封装，未启用时所有投递均为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueStockChanged 投递库存变动任务，没有变体时跳过
func (c *Client) EnqueueStockChanged(payload StockChangedPayload, opts ...asynq.Option) error {
	if !c.Enabled() || len(payload.VariantIDs) == 0 {
		return nil
	}
	task, err := NewStockChangedTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, []asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(3),
		asynq.Timeout(stockChangedTimeout),
	}, opts)
}

// EnqueueDailyDigest 投递指定日期的每日摘要，同一日期重复投递视为成功
func (c *Client) EnqueueDailyDigest(payload DailyDigestPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewDailyDigestTask(payload)
	if err != nil {
		return err
	}
	base := []asynq.Option{asynq.Queue(DefaultQueue), asynq.Timeout(dailyDigestTimeout)}
	if date := strings.TrimSpace(payload.Date); date != "" {
		base = append(base, asynq.TaskID(DailyDigestTaskID(date)), asynq.Retention(dailyDigestRetention))
	}
	err = c.enqueue(task, base, opts)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// DailyDigestTaskID 摘要任务 ID，用于按日期去重
func DailyDigestTaskID(date string) string {
	return TaskReportDailyDigest + ":" + strings.TrimSpace(date)
}

func (c *Client) enqueue(task *asynq.Task, base, extra []asynq.Option) error {
	_, err := c.client.Enqueue(task, append(base, extra...)...)
	return err
}

// BuildServerConfig worker 端连接参数与队列权重，critical 默认优先
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
