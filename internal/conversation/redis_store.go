package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "conversation:%d"

// RedisStore переживает перезапуск процесса. Срок жизни у ключей не ставится:
// брошенный диалог перезаписывается следующим /start.
type RedisStore struct {
	client *redis.Client
}

// ConnectRedis разбирает REDIS_URL и проверяет соединение.
func ConnectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func stateKey(userID int64) string {
	return fmt.Sprintf(stateKeyPrefix, userID)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (State, bool, error) {
	raw, err := s.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("conversation store: get %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, false, fmt.Errorf("conversation store: decode %w", err)
	}
	return state, true, nil
}

func (s *RedisStore) Put(ctx context.Context, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("conversation store: encode %w", err)
	}
	if err := s.client.Set(ctx, stateKey(state.UserID), raw, 0).Err(); err != nil {
		return fmt.Errorf("conversation store: put %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("conversation store: delete %w", err)
	}
	return nil
}
