package jobs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
)

const queueKeyPrefix = "catalogsync"

var queueStates = []string{"waiting", "active", "completed", "failed", "delayed"}

// BatchCounts are the live queue counts for one batch id.
type BatchCounts struct {
	Waiting   int
	Active    int
	Completed int
	Failed    int
}

// Total is the number of queue entries known for the batch.
func (c BatchCounts) Total() int {
	return c.Waiting + c.Active + c.Completed + c.Failed
}

// QueueReader reads the live job queue. Implementations are stateless:
// every call re-derives from the current snapshot.
type QueueReader interface {
	BatchCounts(ctx context.Context, batchID string) (BatchCounts, error)
	FailedErrorCodes(ctx context.Context, batchID string) (map[string]int, error)
	Snapshot(ctx context.Context) (domain.QueueSnapshot, error)
}

// redisQueue reads job state sets from Redis. Jobs live in per-batch state
// sets (`catalogsync:batch:<id>:<state>`) and mirror into queue-wide state
// sets (`catalogsync:queue:<state>`); failed entries record their error
// code in a per-batch hash.
type redisQueue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisQueue creates a queue reader over an existing Redis client.
func NewRedisQueue(client *redis.Client, logger *zap.Logger) QueueReader {
	return &redisQueue{client: client, logger: logger}
}

// NewRedisClient connects to Redis from a URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func batchStateKey(batchID, state string) string {
	return fmt.Sprintf("%s:batch:%s:%s", queueKeyPrefix, batchID, state)
}

func (q *redisQueue) BatchCounts(ctx context.Context, batchID string) (BatchCounts, error) {
	var counts BatchCounts
	for _, pair := range []struct {
		state string
		dest  *int
	}{
		{"waiting", &counts.Waiting},
		{"active", &counts.Active},
		{"completed", &counts.Completed},
		{"failed", &counts.Failed},
	} {
		n, err := q.client.SCard(ctx, batchStateKey(batchID, pair.state)).Result()
		if err != nil {
			q.logger.Warn("failed to read queue state set",
				zap.String("batch_id", batchID),
				zap.String("state", pair.state),
				zap.Error(err),
			)
			return BatchCounts{}, err
		}
		*pair.dest = int(n)
	}
	return counts, nil
}

func (q *redisQueue) FailedErrorCodes(ctx context.Context, batchID string) (map[string]int, error) {
	key := fmt.Sprintf("%s:batch:%s:error_codes", queueKeyPrefix, batchID)
	raw, err := q.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	codes := make(map[string]int, len(raw))
	for code, countStr := range raw {
		count, err := strconv.Atoi(countStr)
		if err != nil {
			continue
		}
		codes[code] = count
	}
	return codes, nil
}

func (q *redisQueue) Snapshot(ctx context.Context) (domain.QueueSnapshot, error) {
	var snap domain.QueueSnapshot
	for _, state := range queueStates {
		n, err := q.client.SCard(ctx, fmt.Sprintf("%s:queue:%s", queueKeyPrefix, state)).Result()
		if err != nil {
			return domain.QueueSnapshot{}, err
		}
		switch state {
		case "waiting":
			snap.Waiting = n
		case "active":
			snap.Active = n
		case "completed":
			snap.Completed = n
		case "failed":
			snap.Failed = n
		case "delayed":
			snap.Delayed = n
		}
		snap.Total += n
	}
	return snap, nil
}
