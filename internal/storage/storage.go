package storage

import (
	"context"
	"fmt"

	"resume-match-go/internal/config"

	"github.com/rs/zerolog"
)

// Storage 存储管理器，聚合画像引擎的所有存储依赖
type Storage struct {
	// 对象存储：原始文档
	MinIO *MinIO

	// 消息队列：画像任务与完成事件
	RabbitMQ *RabbitMQ

	// 关系型数据库：画像与匹配结果
	MySQL *MySQL

	// 键值存储：文档去重与向量缓存
	Redis *Redis
}

// NewStorage 创建存储管理器。MySQL和MinIO为必须项；
// RabbitMQ与Redis按配置可选，缺失时对应能力降级（同步处理、无去重缓存）。
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var err error

	s.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}

	s.MinIO, err = NewMinIO(&cfg.MinIO, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("初始化MinIO失败: %w", err)
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("初始化RabbitMQ失败: %w", err)
		}
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败，去重与向量缓存不可用")
			s.Redis = nil
		}
	}

	logger.Info().
		Bool("rabbitmq", s.RabbitMQ != nil).
		Bool("redis", s.Redis != nil).
		Msg("存储层初始化完成")
	return s, nil
}

// SetupMessageTopology 声明画像流水线所需的exchange、队列与绑定
func (s *Storage) SetupMessageTopology(cfg *config.RabbitMQConfig) error {
	if s.RabbitMQ == nil {
		return fmt.Errorf("RabbitMQ未初始化")
	}

	if err := s.RabbitMQ.EnsureExchange(cfg.ProfileEventsExchange, "direct", true); err != nil {
		return err
	}
	if err := s.RabbitMQ.EnsureQueue(cfg.ProfilePendingQueue, true); err != nil {
		return err
	}
	return s.RabbitMQ.BindQueue(cfg.ProfilePendingQueue, cfg.ProfileEventsExchange, cfg.PendingRoutingKey)
}

// Close 释放所有存储连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		s.RabbitMQ.Close()
	}
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.MySQL != nil {
		s.MySQL.Close()
	}
}
