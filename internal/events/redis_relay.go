package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UserChannel is the pub/sub channel carrying realtime events for a user.
func UserChannel(userID string) string {
	return "user:" + userID + ":events"
}

type envelope struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}

func encode(e Event) ([]byte, error) {
	return json.Marshal(envelope{Type: string(e.Kind()), Data: e})
}

// RedisRelay appends every event to a stream for external consumers and
// pushes conversation events to the participants' channels.
type RedisRelay struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisRelay(rdb *redis.Client, stream string) *RedisRelay {
	if stream == "" {
		stream = "social:events"
	}
	return &RedisRelay{rdb: rdb, stream: stream, maxLen: 100000}
}

func (r *RedisRelay) Handle(ctx context.Context, e Event) error {
	payload, err := encode(e)
	if err != nil {
		return err
	}

	err = r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{
			"kind":    string(e.Kind()),
			"payload": string(payload),
			"ts_unix": strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err()

	if !realtime(e.Kind()) {
		return err
	}
	for _, userID := range e.Subjects() {
		if perr := r.rdb.Publish(ctx, UserChannel(userID), payload).Err(); perr != nil {
			err = errors.Join(err, perr)
		}
	}
	return err
}

func realtime(k Kind) bool {
	return k == KindConversationCreated || k == KindMessageAppended
}
