package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidStorageType = errors.New("invalid storage type")
)

// Storage is the durable key/value store behind one client context.
type Storage interface {
	// Get returns "" when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

type StorageType string

const (
	StorageTypeMemory StorageType = "memory"
	StorageTypeRedis  StorageType = "redis"
)

// StorageOption is a functional option for configuring a Storage.
type StorageOption func(*storageConfig)

type storageConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
	namespace   string
}

func WithRedisClient(client *redis.Client) StorageOption {
	return func(c *storageConfig) {
		c.redisClient = client
	}
}

func WithRedisTTL(ttl time.Duration) StorageOption {
	return func(c *storageConfig) {
		c.redisTTL = ttl
	}
}

// WithNamespace scopes redis keys to one client context, e.g. one CLI profile.
func WithNamespace(namespace string) StorageOption {
	return func(c *storageConfig) {
		c.namespace = namespace
	}
}

// NewStorage creates a Storage of the given type. Redis requires WithRedisClient.
func NewStorage(storageType StorageType, opts ...StorageOption) (Storage, error) {
	config := &storageConfig{namespace: "default"}
	for _, opt := range opts {
		opt(config)
	}

	switch storageType {
	case StorageTypeMemory:
		return &memoryStorage{values: make(map[string]string)}, nil

	case StorageTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 30 * 24 * time.Hour
		}
		return &redisStorage{
			client: config.redisClient,
			ttl:    ttl,
			prefix: "rp:client:" + config.namespace + ":",
		}, nil

	default:
		return nil, ErrInvalidStorageType
	}
}

type memoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func (s *memoryStorage) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *memoryStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memoryStorage) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *memoryStorage) Close() error {
	return nil
}

type redisStorage struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func (s *redisStorage) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	_ = s.client.Expire(ctx, s.prefix+key, s.ttl).Err()
	return val, nil
}

func (s *redisStorage) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

func (s *redisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.prefix + key
	}
	return s.client.Del(ctx, full...).Err()
}

func (s *redisStorage) Close() error {
	return s.client.Close()
}
