package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lmazzei55/tradelog"
)

// RedisConfig holds connection parameters for the Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Key under which the snapshot is stored.
	Key string
}

// RedisStore keeps the snapshot in a Redis hash.
//
// Key schema:
//
//	{key} - hash with fields "accounts", "stockTransactions" and
//	        "optionTransactions", each a JSON array
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to Redis and pings it to verify connectivity.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	key := cfg.Key
	if key == "" {
		key = "tradelog"
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) Load(ctx context.Context) (tradelog.Snapshot, error) {
	var snap tradelog.Snapshot
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return snap, fmt.Errorf("redis: load %s: %w", s.key, err)
	}
	if len(fields) == 0 {
		return snap, nil
	}
	var errs []error
	errs = append(errs, unmarshalField(fields, "accounts", &snap.Accounts))
	errs = append(errs, unmarshalField(fields, "stockTransactions", &snap.StockTransactions))
	errs = append(errs, unmarshalField(fields, "optionTransactions", &snap.OptionTransactions))
	if err := errors.Join(errs...); err != nil {
		return tradelog.Snapshot{}, fmt.Errorf("redis: load %s: %w", s.key, err)
	}
	return snap, nil
}

// Save replaces the hash in a single transaction.
func (s *RedisStore) Save(ctx context.Context, snap tradelog.Snapshot) error {
	accounts, err := marshalField(snap.Accounts)
	if err != nil {
		return err
	}
	stocks, err := marshalField(snap.StockTransactions)
	if err != nil {
		return err
	}
	options, err := marshalField(snap.OptionTransactions)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	pipe.HSet(ctx, s.key,
		"accounts", accounts,
		"stockTransactions", stocks,
		"optionTransactions", options)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: save %s: %w", s.key, err)
	}
	return nil
}

func marshalField[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("redis: marshal: %w", err)
	}
	return data, nil
}

func unmarshalField[T any](fields map[string]string, name string, dst *[]T) error {
	data, ok := fields[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	return nil
}
