package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"dialer_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueue()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueWebhookReconcile queues one raw provider delivery for the
// worker. Satisfies webhook.ReconcileEnqueuer.
func (c *Client) EnqueueWebhookReconcile(ctx context.Context, body []byte) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler client not configured")
	}
	_, err := c.client.EnqueueContext(ctx, NewWebhookReconcileTask(body), asynq.Queue(c.queue))
	return err
}

// EnqueueDialerRun queues a scheduler pass for one tenant.
func (c *Client) EnqueueDialerRun(ctx context.Context, tenantID uuid.UUID) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler client not configured")
	}
	task, err := NewDialerRunTask(DialerRunPayload{TenantID: tenantID.String()})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// EnqueueRecordingArchive queues a recording download. Satisfies
// webhook.ArchiveEnqueuer.
func (c *Client) EnqueueRecordingArchive(ctx context.Context, providerCallID, recordingURL string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler client not configured")
	}
	task, err := NewRecordingArchiveTask(RecordingArchivePayload{
		ProviderCallID: providerCallID,
		RecordingURL:   recordingURL,
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
