package types

import "time"

// DocumentFormat 表示原始文档的声明格式
type DocumentFormat string

const (
	// FormatPDF PDF文档
	FormatPDF DocumentFormat = "pdf"
	// FormatDOCX Word文档
	FormatDOCX DocumentFormat = "docx"
)

// SectionKind 表示文档语义分区类型
type SectionKind string

const (
	// SectionExperience 工作经历分区
	SectionExperience SectionKind = "EXPERIENCE"
	// SectionEducation 教育经历分区
	SectionEducation SectionKind = "EDUCATION"
	// SectionSkills 技能分区
	SectionSkills SectionKind = "SKILLS"
	// SectionSummary 个人概述分区
	SectionSummary SectionKind = "SUMMARY"
	// SectionRequirements 岗位要求分区（JD侧）
	SectionRequirements SectionKind = "REQUIREMENTS"
	// SectionUnclassified 未分类内容分区，始终是合法结果而非错误
	SectionUnclassified SectionKind = "UNCLASSIFIED"
)

// MatchType 表示技能命中的匹配层级
type MatchType string

const (
	// MatchExact 规范名或别名的精确命中
	MatchExact MatchType = "EXACT"
	// MatchAlias 词形还原或同义词表命中
	MatchAlias MatchType = "ALIAS"
	// MatchFuzzy 编辑距离相似度命中
	MatchFuzzy MatchType = "FUZZY"
)

// RawDocument 待处理的原始文档，仅在单次流水线运行期间存活
type RawDocument struct {
	DocumentID string         // 平台侧的来源文档ID
	Format     DocumentFormat // 声明的格式标签
	Content    []byte         // 文档二进制内容
}

// TextBlock 提取出的一段有序纯文本
type TextBlock struct {
	Text      string // 文本内容
	Page      int    // 页码或段落序号（从0开始）
	StyleHint string // 样式提示，例如 "heading"；无提示时为空
}

// ExtractedText 提取结果：有序文本块序列。零块表示空文档，不是错误。
type ExtractedText struct {
	Blocks []TextBlock
}

// IsEmpty 判断提取结果是否不含任何非空白文本
func (e ExtractedText) IsEmpty() bool {
	for _, b := range e.Blocks {
		if len(b.Text) > 0 {
			return false
		}
	}
	return true
}

// Segment 一段连续、已分类的文档区域
type Segment struct {
	Kind         SectionKind // 分区类型
	Text         string      // 分区文本
	SourceBlocks []int       // 贡献了内容的TextBlock下标
}

// ExtractedSkill 单个技能命中，按规范技能去重后保留最高置信度
type ExtractedSkill struct {
	SkillID    string      `json:"skill_id"`   // 规范技能ID
	Confidence float64     `json:"confidence"` // 置信度 [0,1]
	Section    SectionKind `json:"section"`    // 最高置信度命中所在分区
	MatchType  MatchType   `json:"match_type"` // 命中层级
}

// Profile 文档的归一化画像，按(文档内容哈希, 词表版本, 模型版本)唯一确定。
// 创建后不可变；源文档变化时整体重算。
type Profile struct {
	DocumentID        string                    `json:"document_id"`
	ContentHash       string                    `json:"content_hash"` // 文档字节的sha256十六进制
	VocabularyVersion string                    `json:"vocabulary_version"`
	ModelVersion      string                    `json:"model_version"`
	Skills            map[string]ExtractedSkill `json:"skills"`
	SectionEmbeddings map[SectionKind][]float64 `json:"section_embeddings,omitempty"`
	WholeDocEmbedding []float64                 `json:"whole_doc_embedding,omitempty"`
	ExtractedAt       time.Time                 `json:"extracted_at"`
}

// HasEmbedding 判断画像是否携带整文档向量
func (p *Profile) HasEmbedding() bool {
	return p != nil && len(p.WholeDocEmbedding) > 0
}

// JobPosting 平台侧传入的岗位结构化字段，用于组装JD侧画像
type JobPosting struct {
	JobID            string   `json:"job_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Requirements     string   `json:"requirements"`
	PreferredSkills  string   `json:"preferred_skills"`
	RequiredSkillIDs []string `json:"required_skill_ids"` // 按岗位声明顺序
}

// ScoringWeights 评分策略的全部可配置项
type ScoringWeights struct {
	RequiredSkillWeight float64 `yaml:"required_skill_weight" json:"required_skill_weight"` // 必备技能权重
	OptionalSkillWeight float64 `yaml:"optional_skill_weight" json:"optional_skill_weight"` // 可选技能权重
	SkillBlend          float64 `yaml:"skill_blend" json:"skill_blend"`                     // 技能重合分占比
	SemanticBlend       float64 `yaml:"semantic_blend" json:"semantic_blend"`               // 语义相似分占比
	SectionPairBlend    float64 `yaml:"section_pair_blend" json:"section_pair_blend"`       // 分区对相似度在语义分中的占比
	FuzzyThreshold      float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`             // 模糊匹配相似度阈值
}

// DefaultScoringWeights 返回默认评分策略（60%技能重合 + 40%语义相似）
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		RequiredSkillWeight: 1.0,
		OptionalSkillWeight: 0.4,
		SkillBlend:          0.6,
		SemanticBlend:       0.4,
		SectionPairBlend:    0.3,
		FuzzyThreshold:      0.85,
	}
}

// MatchedSkill 双方画像均命中的技能及其来源置信度
type MatchedSkill struct {
	SkillID             string  `json:"skill_id"`
	DisplayName         string  `json:"display_name"`
	CandidateConfidence float64 `json:"candidate_confidence"`
	JobConfidence       float64 `json:"job_confidence"`
	Required            bool    `json:"required"`
}

// MatchResult 候选人与岗位的匹配结果。派生数据，永远可由两份画像加策略版本重算。
type MatchResult struct {
	CandidateID             string         `json:"candidate_id"`
	JobID                   string         `json:"job_id"`
	OverallScore            float64        `json:"overall_score"`             // [0,100]
	SkillOverlapScore       float64        `json:"skill_overlap_score"`       // [0,100]
	SemanticSimilarityScore float64        `json:"semantic_similarity_score"` // [0,100]；Partial时无意义
	MatchedSkills           []MatchedSkill `json:"matched_skills"`            // 按置信度乘积降序
	MissingRequiredSkills   []string       `json:"missing_required_skills"`   // 按岗位声明顺序
	Partial                 bool           `json:"partial"`                   // 任一侧缺少向量时为true
	PolicyVersion           string         `json:"policy_version"`
	ComputedAt              time.Time      `json:"computed_at"`
}

// RankedCandidate 岗位维度排序后的单个候选人结果
type RankedCandidate struct {
	CandidateID string       `json:"candidate_id"`
	Result      *MatchResult `json:"result"`
}
