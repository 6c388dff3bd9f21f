package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"flight_catalog/internal/config"
)

// RedisClient represents the Redis client
type RedisClient struct {
	*redis.Client
}

// NewRedisClient creates a new Redis client and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Println("Successfully connected to Redis")
	return &RedisClient{client}, nil
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	return rc.Client.Close()
}

// GetJSON gets a JSON value from Redis
func (rc *RedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("key %s: %w", key, ErrDocumentNotFound)
		}
		return fmt.Errorf("failed to get from Redis: %w", err)
	}

	return json.Unmarshal(data, dest)
}

// GenerateDocumentCacheKey generates the key holding a catalog document
func GenerateDocumentCacheKey(name string) string {
	return fmt.Sprintf("flight_catalog:%s", name)
}

// GenerateDocumentInfoCacheKey generates the key holding a document's metadata
func GenerateDocumentInfoCacheKey(name string) string {
	return fmt.Sprintf("flight_catalog:%s:info", name)
}

// RedisStore keeps one named catalog document in Redis. Every Save
// overwrites the whole document.
type RedisStore struct {
	client *RedisClient
	name   string
}

// NewRedisStore creates a store for the named document
func NewRedisStore(client *RedisClient, name string) *RedisStore {
	return &RedisStore{client: client, name: name}
}

// Load returns the stored document, or ErrDocumentNotFound
func (rs *RedisStore) Load(ctx context.Context) ([]byte, error) {
	key := GenerateDocumentCacheKey(rs.name)
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("key %s: %w", key, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("failed to get document from Redis: %w", err)
	}
	return data, nil
}

// Save writes the document and its metadata in one transaction
func (rs *RedisStore) Save(ctx context.Context, revision string, doc []byte) error {
	info, err := json.Marshal(DocumentInfo{
		Name:     rs.name,
		Revision: revision,
		Size:     len(doc),
		SavedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal document info: %w", err)
	}

	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, GenerateDocumentCacheKey(rs.name), doc, 0)
		pipe.Set(ctx, GenerateDocumentInfoCacheKey(rs.name), info, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save document to Redis: %w", err)
	}

	log.Printf("Saved catalog %s revision %s to Redis (%d bytes)", rs.name, revision, len(doc))
	return nil
}

// Info returns metadata about the last Save
func (rs *RedisStore) Info(ctx context.Context) (*DocumentInfo, error) {
	var info DocumentInfo
	if err := rs.client.GetJSON(ctx, GenerateDocumentInfoCacheKey(rs.name), &info); err != nil {
		return nil, err
	}
	return &info, nil
}
