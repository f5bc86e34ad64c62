package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-match-go/internal/config"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Redis键前缀
const (
	docHashKeyPrefix = "profile:dochash:" // 已处理文档内容哈希
	vectorKeyPrefix  = "profile:vector:"  // 文本向量缓存
)

// ErrNotFound 键不存在时返回，封装底层的redis.Nil
var ErrNotFound = redis.Nil

// Redis 封装Redis客户端，提供文档去重和向量缓存
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter 创建Redis连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 记录所有Redis操作的链路信息
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis追踪钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 (%s): %w", cfg.Address, err)
	}

	return &Redis{Client: client, cfg: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// Ping 检查连接可用性
func (r *Redis) Ping(ctx context.Context) error {
	_, err := r.Client.Ping(ctx).Result()
	return err
}

// docHashExpireDuration 文档哈希去重记录的保留时长
func (r *Redis) docHashExpireDuration() time.Duration {
	days := r.cfg.DocHashExpireDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// CheckAndAddDocumentHash 原子地检查并登记文档内容哈希。
// 返回true表示该内容此前已处理过。SET NX保证并发投递同一文档时只有一个worker继续。
func (r *Redis) CheckAndAddDocumentHash(ctx context.Context, hashHex string) (bool, error) {
	if hashHex == "" {
		return false, fmt.Errorf("内容哈希不能为空")
	}

	key := docHashKeyPrefix + hashHex
	set, err := r.Client.SetNX(ctx, key, "1", r.docHashExpireDuration()).Result()
	if err != nil {
		return false, fmt.Errorf("登记文档哈希失败: %w", err)
	}
	return !set, nil
}

// RemoveDocumentHash 移除去重记录：画像落库失败后回滚登记，或人工触发重算
func (r *Redis) RemoveDocumentHash(ctx context.Context, hashHex string) error {
	return r.Client.Del(ctx, docHashKeyPrefix+hashHex).Err()
}

// GetVector 读取缓存向量。key为模型版本+文本哈希，见embedder.ContentKey。
func (r *Redis) GetVector(ctx context.Context, key string) ([]float64, bool, error) {
	raw, err := r.Client.Get(ctx, vectorKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("读取向量缓存失败: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		// 缓存内容损坏按未命中处理，删除坏键
		r.Client.Del(ctx, vectorKeyPrefix+key)
		return nil, false, nil
	}
	return vector, true, nil
}

// RedisVectorCache 把Redis适配成embedder.VectorCache，过期时间在构造时固定
type RedisVectorCache struct {
	redis *Redis
	ttl   time.Duration
}

// NewRedisVectorCache 创建向量缓存适配器
func NewRedisVectorCache(r *Redis, ttl time.Duration) *RedisVectorCache {
	return &RedisVectorCache{redis: r, ttl: ttl}
}

// GetVector 实现embedder.VectorCache
func (c *RedisVectorCache) GetVector(ctx context.Context, key string) ([]float64, bool, error) {
	return c.redis.GetVector(ctx, key)
}

// SetVector 实现embedder.VectorCache
func (c *RedisVectorCache) SetVector(ctx context.Context, key string, vector []float64) error {
	return c.redis.SetVector(ctx, key, vector, c.ttl)
}

// SetVector 写入缓存向量
func (r *Redis) SetVector(ctx context.Context, key string, vector []float64, ttl time.Duration) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("序列化向量失败: %w", err)
	}
	if err := r.Client.Set(ctx, vectorKeyPrefix+key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("写入向量缓存失败: %w", err)
	}
	return nil
}
