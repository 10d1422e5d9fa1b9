package events

import (
	"context"
	"encoding/json"

	"factory-qc-backend/internal/usecase/inspection"

	"github.com/redis/go-redis/v9"
)

const verdictChannel = "qc:verdicts"

// RedisPublisher fans verdict events out on a redis channel. Item and
// prototype records subscribe to keep their qc_status in sync; the engine
// itself never writes those tables.
type RedisPublisher struct{ rdb *redis.Client }

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher { return &RedisPublisher{rdb: rdb} }

var _ inspection.EventPublisher = (*RedisPublisher)(nil)

func (p *RedisPublisher) PublishVerdict(ctx context.Context, ev inspection.VerdictEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, verdictChannel, b).Err()
}
