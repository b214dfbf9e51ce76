package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/filtering"
)

const defaultRedisPrefix = "teacherlink:filters"

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Redis keeps criteria as a JSON string under <prefix>:<key>.
type Redis struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig, key string, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", addr))

	return &Redis{rdb: rdb, key: RedisKey(cfg.Prefix, key), ttl: cfg.TTL}, nil
}

// RedisKey builds the storage key.
func RedisKey(prefix, key string) string {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return prefix + ":" + key
}

func (r *Redis) Load(ctx context.Context) (filtering.Criteria, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return filtering.Criteria{}, ErrNotFound
	}
	if err != nil {
		return filtering.Criteria{}, err
	}

	return filtering.ParseCriteria(raw)
}

func (r *Redis) Save(ctx context.Context, criteria filtering.Criteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(criteria)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, raw, r.ttl).Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
