package processor

import (
	"time"

	"resume-match-go/internal/types"

	"github.com/rs/zerolog"
)

// Components 流水线组件集合
type Components struct {
	Extractor      DocumentExtractor
	Segmenter      TextSegmenter
	SkillExtractor SkillExtractor
	Embedder       ProfileEmbedder
}

// Settings 流水线行为设置
type Settings struct {
	Logger            zerolog.Logger
	Now               func() time.Time
	VocabularyVersion string
	// EmbedSections 需要单独计算分区向量的分区类型
	EmbedSections []types.SectionKind
}

// ComponentOpt 组件选项，仅改变Components内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项，仅改变Settings内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

// WithExtractor 设置文档提取器
func WithExtractor(extractor DocumentExtractor) ComponentOpt {
	return func(c *Components) {
		c.Extractor = extractor
	}
}

// WithSegmenter 设置文本分段器
func WithSegmenter(segmenter TextSegmenter) ComponentOpt {
	return func(c *Components) {
		c.Segmenter = segmenter
	}
}

// WithSkillExtractor 设置技能抽取器
func WithSkillExtractor(extractor SkillExtractor) ComponentOpt {
	return func(c *Components) {
		c.SkillExtractor = extractor
	}
}

// WithEmbedder 设置画像嵌入器
func WithEmbedder(embedder ProfileEmbedder) ComponentOpt {
	return func(c *Components) {
		c.Embedder = embedder
	}
}

// ----- 设置选项 -----

// WithProcessorLogger 设置日志记录器
func WithProcessorLogger(logger zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		s.Logger = logger
	}
}

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) SettingOpt {
	return func(s *Settings) {
		if now != nil {
			s.Now = now
		}
	}
}

// WithVocabularyVersion 设置词表版本标签
func WithVocabularyVersion(version string) SettingOpt {
	return func(s *Settings) {
		s.VocabularyVersion = version
	}
}

// WithEmbedSections 设置需要单独计算向量的分区类型
func WithEmbedSections(kinds ...types.SectionKind) SettingOpt {
	return func(s *Settings) {
		s.EmbedSections = kinds
	}
}
