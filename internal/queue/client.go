package queue

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/config"
	"github.com/dujiao-next/ledger-engine/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	auditMaxRetry = 3
	// AuditUniqueWindow 同一审计对象在窗口内只保留一个待执行任务
	AuditUniqueWindow = 30 * time.Second

	defaultConcurrency = 10
)

// Client 审计任务投递客户端，未启用时所有投递均为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
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

// enqueueAudit 投递审计任务；窗口内重复的审计视为已投递
func (c *Client) enqueueAudit(task *asynq.Task, opts ...asynq.Option) error {
	options := append([]asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(auditMaxRetry),
		asynq.Unique(AuditUniqueWindow),
	}, opts...)
	_, err := c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// EnqueueDiscountUsageAudit 推送会员折扣用量审计任务
func (c *Client) EnqueueDiscountUsageAudit(payload DiscountUsageAuditPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewDiscountUsageAuditTask(payload)
	if err != nil {
		return err
	}
	return c.enqueueAudit(task, opts...)
}

// EnqueueGiftCardLedgerAudit 推送礼品卡余额审计任务
func (c *Client) EnqueueGiftCardLedgerAudit(payload GiftCardLedgerAuditPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewGiftCardLedgerAuditTask(payload)
	if err != nil {
		return err
	}
	return c.enqueueAudit(task, opts...)
}

// BuildServerConfig 生成 worker 的 redis 连接与并发配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1},
	}
	if cfg != nil && cfg.Concurrency > 0 {
		serverCfg.Concurrency = cfg.Concurrency
	}
	if cfg != nil && len(cfg.Queues) > 0 {
		serverCfg.Queues = cfg.Queues
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		return asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	return asynq.RedisClientOpt{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
