package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	consumer  *Consumer
}

// NewService 创建异步队列服务，配置了 digest_cron 时同时注册每日摘要调度
func NewService(cfg *config.QueueConfig, consumer *Consumer, loc *time.Location) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler, err := buildDigestScheduler(opt, cfg.DigestCron, loc)
	if err != nil {
		return nil, err
	}
	return &Service{
		name:      "worker",
		server:    server,
		mux:       mux,
		scheduler: scheduler,
		consumer:  consumer,
	}, nil
}

func buildDigestScheduler(opt asynq.RedisClientOpt, cronSpec string, loc *time.Location) (*asynq.Scheduler, error) {
	cronSpec = strings.TrimSpace(cronSpec)
	if cronSpec == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	task, err := queue.NewDailyDigestTask(queue.DailyDigestPayload{})
	if err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: loc})
	entryID, err := scheduler.Register(cronSpec, task, asynq.Queue(queue.DefaultQueue))
	if err != nil {
		return nil, err
	}
	logger.Infow("worker_digest_scheduled", "cron", cronSpec, "entry_id", entryID, "timezone", loc.String())
	return scheduler, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务，阻塞至 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			s.server.Shutdown()
			return err
		}
	}
	<-ctx.Done()
	return nil
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	if s.scheduler != nil {
		s.scheduler.Shutdown()
	}
	s.server.Shutdown()
	return nil
}
