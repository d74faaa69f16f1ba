// internal/message/message.go
//
// Sitewerk outbound messaging.
//
// Context
//   The contact form (and GDPR confirmations) enqueue outbound email jobs.
//   Delivery happens in a separate mail worker; this package only
//   publishes.  Two queues exist:
//
//     - LogQueue   logs the job and drops it.  Default when Redis is off.
//     - RedisQueue LPUSHes a JSON job onto a Redis list; the worker BRPOPs
//                  from the other end, so jobs are processed FIFO.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Email represents a basic outbound email job.
type Email struct {
	ID       string    `json:"id"`
	TenantID string    `json:"tenantId"`
	To       []string  `json:"to"`
	ReplyTo  string    `json:"replyTo,omitempty"`
	Subject  string    `json:"subject"`
	Text     string    `json:"text"`
	Queued   time.Time `json:"queued"`
}

// Queue accepts email jobs.
type Queue interface {
	EnqueueEmail(ctx context.Context, msg Email) error
}

func stamp(msg *Email) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Queued.IsZero() {
		msg.Queued = time.Now().UTC()
	}
}

//
// LogQueue
//

// LogQueue logs the job metadata.  Bodies are not logged; they hold
// personal data.
type LogQueue struct{}

func (LogQueue) EnqueueEmail(_ context.Context, msg Email) error {
	stamp(&msg)
	zap.L().Info("queue email",
		zap.String("id", msg.ID), zap.String("tenant", msg.TenantID),
		zap.Int("recipients", len(msg.To)), zap.String("subject", msg.Subject),
		zap.Int("len_text", len(msg.Text)))
	return nil
}

//
// RedisQueue
//

// RedisQueue publishes jobs on a Redis list.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue returns a queue writing to key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) EnqueueEmail(ctx context.Context, msg Email) error {
	stamp(&msg)
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// Next blocks up to timeout for the oldest job.  It returns (nil, nil) on
// timeout.  Used by the mail worker.
func (q *RedisQueue) Next(ctx context.Context, timeout time.Duration) (*Email, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var msg Email
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("decode email job: %w", err)
	}
	return &msg, nil
}
