package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"resume-match-go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinIO 原始文档的对象存储访问层
type MinIO struct {
	client          *minio.Client
	documentsBucket string
	logger          zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保文档桶存在
func NewMinIO(cfg *config.MinIOConfig, logger zerolog.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO endpoint不能为空")
	}
	if cfg.DocumentsBucket == "" {
		return nil, fmt.Errorf("文档桶名不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:          client,
		documentsBucket: cfg.DocumentsBucket,
		logger:          logger,
	}

	if err := m.ensureBucketExists(cfg.DocumentsBucket, cfg.Location); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查桶 %s 是否存在失败: %w", bucketName, err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("已创建MinIO桶")
	return nil
}

// FetchDocument 按对象键下载原始文档字节，实现processor.DocumentSource
func (m *MinIO) FetchDocument(ctx context.Context, objectKey string) ([]byte, error) {
	if objectKey == "" {
		return nil, fmt.Errorf("对象键不能为空")
	}

	obj, err := m.client.GetObject(ctx, m.documentsBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s 失败: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s 内容失败: %w", objectKey, err)
	}
	return data, nil
}

// UploadDocument 上传文档到文档桶，返回对象键。内容类型按扩展名推断。
func (m *MinIO) UploadDocument(ctx context.Context, objectKey string, content []byte) (string, error) {
	contentType := contentTypeByExt(filepath.Ext(objectKey))
	_, err := m.client.PutObject(ctx, m.documentsBucket, objectKey,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s 失败: %w", objectKey, err)
	}
	return objectKey, nil
}

// DeleteDocument 删除文档对象
func (m *MinIO) DeleteDocument(ctx context.Context, objectKey string) error {
	if err := m.client.RemoveObject(ctx, m.documentsBucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", objectKey, err)
	}
	return nil
}

func contentTypeByExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
