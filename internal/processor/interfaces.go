package processor

import (
	"context"

	"resume-match-go/internal/types"
)

//
// 画像流水线的组件接口。各阶段独立可替换，测试用手写mock。
//

// DocumentExtractor 文档提取器接口
type DocumentExtractor interface {
	// Extract 把二进制文档转换为有序文本块；空文档产出零块而非错误
	Extract(ctx context.Context, doc types.RawDocument) (types.ExtractedText, error)
}

// TextSegmenter 文本分段器接口。纯函数，无随机性。
type TextSegmenter interface {
	Segment(extracted types.ExtractedText) []types.Segment
}

// SkillExtractor 技能抽取器接口
type SkillExtractor interface {
	// ExtractSkills 抽取全部分区并按规范技能去重（保留最高置信度）
	ExtractSkills(segments []types.Segment) map[string]types.ExtractedSkill
}

// ProfileEmbedder 画像嵌入器接口
type ProfileEmbedder interface {
	// EmbedText 把文本映射为固定维度向量；空文本返回nil向量
	EmbedText(ctx context.Context, text string) ([]float64, error)

	// ModelVersion 模型版本标签，写入派生画像
	ModelVersion() string
}

//
// 平台协作方接口。实现在 internal/storage。
//

// DocumentSource 文档来源（平台的文件存储层）
type DocumentSource interface {
	FetchDocument(ctx context.Context, objectKey string) ([]byte, error)
}

// ProfileStore 画像持久化
type ProfileStore interface {
	// UpsertProfile 以最后写入者胜出的语义写入画像。kind区分候选人与岗位。
	UpsertProfile(ctx context.Context, profile *types.Profile, kind string, status string) error
}

// HashDeduper 内容哈希去重
type HashDeduper interface {
	// CheckAndAddDocumentHash 原子地检查并登记文档哈希；返回此前是否已存在
	CheckAndAddDocumentHash(ctx context.Context, hash string) (bool, error)
	// RemoveDocumentHash 撤销登记。画像未能落库时必须调用，否则重投的消息会被去重误跳过
	RemoveDocumentHash(ctx context.Context, hash string) error
}

// EventPublisher 画像事件发布
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, data interface{}, persistent bool) error
}
