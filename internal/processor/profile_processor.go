package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"resume-match-go/internal/types"

	"github.com/rs/zerolog"
)

// 默认需要单独计算向量的分区：简历侧的经历/技能/概述与JD侧的要求
var defaultEmbedSections = []types.SectionKind{
	types.SectionExperience,
	types.SectionSkills,
	types.SectionSummary,
	types.SectionRequirements,
}

// ProfileProcessor 画像流水线：提取 → 分段 → 技能抽取 → 向量化。
// 每次运行相互独立，可完全并行；组件均为只读共享，无全局锁。
type ProfileProcessor struct {
	Components Components
	Settings   Settings
}

// NewProfileProcessor 创建画像流水线，校验必需组件
func NewProfileProcessor(compOpts []ComponentOpt, setOpts ...SettingOpt) (*ProfileProcessor, error) {
	p := &ProfileProcessor{
		Settings: Settings{
			Logger:        zerolog.Nop(),
			Now:           time.Now,
			EmbedSections: defaultEmbedSections,
		},
	}
	for _, opt := range compOpts {
		opt(&p.Components)
	}
	for _, opt := range setOpts {
		opt(&p.Settings)
	}

	if p.Components.Extractor == nil {
		return nil, fmt.Errorf("必须配置文档提取器")
	}
	if p.Components.Segmenter == nil {
		return nil, fmt.Errorf("必须配置文本分段器")
	}
	if p.Components.SkillExtractor == nil {
		return nil, fmt.Errorf("必须配置技能抽取器")
	}
	// Embedder可以缺省：产出无向量的部分画像
	return p, nil
}

// ContentHash 计算文档字节的sha256十六进制哈希
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// BuildProfile 对单个文档执行完整画像流水线。
// 画像是(文档字节, 词表版本, 模型版本)的纯函数；相同输入产出逐字节相同的画像
// （ExtractedAt由Settings.Now提供，重放时注入固定时钟即可）。
//
// 嵌入服务不可用时返回不含向量的部分画像和包装后的错误，
// 调用方可以选择按部分画像落库并稍后重试。
func (p *ProfileProcessor) BuildProfile(ctx context.Context, doc types.RawDocument) (*types.Profile, error) {
	log := p.Settings.Logger.With().Str("document_id", doc.DocumentID).Logger()

	extracted, err := p.Components.Extractor.Extract(ctx, doc)
	if err != nil {
		return nil, NewExtractError(doc.DocumentID, err)
	}

	segments := p.Components.Segmenter.Segment(extracted)
	skills := p.Components.SkillExtractor.ExtractSkills(segments)

	profile := &types.Profile{
		DocumentID:        doc.DocumentID,
		ContentHash:       ContentHash(doc.Content),
		VocabularyVersion: p.Settings.VocabularyVersion,
		Skills:            skills,
		ExtractedAt:       p.Settings.Now(),
	}

	if p.Components.Embedder == nil {
		log.Debug().Int("skills", len(skills)).Msg("未配置嵌入器，产出无向量画像")
		return profile, nil
	}
	profile.ModelVersion = p.Components.Embedder.ModelVersion()

	if extracted.IsEmpty() {
		// 空文档：空画像，不算错误，下游匹配会得到0分
		log.Debug().Msg("文档无文本内容，产出空画像")
		return profile, nil
	}

	wholeText := joinBlocks(extracted)
	wholeVec, err := p.Components.Embedder.EmbedText(ctx, wholeText)
	if err != nil {
		// 返回部分画像而不是nil：技能抽取结果仍然有效
		log.Warn().Err(err).Msg("整文档向量计算失败，画像降级为部分结果")
		return profile, NewEmbedError(doc.DocumentID, err)
	}
	profile.WholeDocEmbedding = wholeVec

	sectionText := collectSectionText(segments, p.Settings.EmbedSections)
	for _, kind := range p.Settings.EmbedSections {
		text, ok := sectionText[kind]
		if !ok || text == "" {
			continue
		}
		vec, err := p.Components.Embedder.EmbedText(ctx, text)
		if err != nil {
			// 分区向量是锦上添花，失败只记日志，整文档向量仍然可用
			log.Warn().Err(err).Str("section", string(kind)).Msg("分区向量计算失败，跳过该分区")
			continue
		}
		if len(vec) == 0 {
			continue
		}
		if profile.SectionEmbeddings == nil {
			profile.SectionEmbeddings = make(map[types.SectionKind][]float64)
		}
		profile.SectionEmbeddings[kind] = vec
	}

	log.Debug().
		Int("segments", len(segments)).
		Int("skills", len(skills)).
		Int("section_embeddings", len(profile.SectionEmbeddings)).
		Msg("画像构建完成")
	return profile, nil
}

// bulletPattern 统一各种bullet写法，JD文本里混用 • * - 很常见
var bulletPattern = regexp.MustCompile(`(?m)^[\s]*[•*-][\s]+`)

// BuildJobProfile 把岗位的结构化字段组装成伪文档后走同一条画像流水线。
// 组装模板保证Requirements/PreferredSkills落入正确的分区。
func (p *ProfileProcessor) BuildJobProfile(ctx context.Context, job types.JobPosting) (*types.Profile, error) {
	var blocks []types.TextBlock
	page := 0
	appendBlock := func(text, styleHint string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		blocks = append(blocks, types.TextBlock{Text: text, Page: page, StyleHint: styleHint})
		page++
	}

	appendBlock(job.Title, "")
	appendBlock(normalizeBullets(job.Description), "")
	if job.Requirements != "" {
		appendBlock("Requirements", "Heading1")
		appendBlock(normalizeBullets(job.Requirements), "")
	}
	if job.PreferredSkills != "" {
		appendBlock("Preferred Skills", "Heading1")
		appendBlock(normalizeBullets(job.PreferredSkills), "")
	}

	combined := joinBlocks(types.ExtractedText{Blocks: blocks})

	// 复用文档流水线：从分段开始的逻辑完全一致
	extracted := types.ExtractedText{Blocks: blocks}
	segments := p.Components.Segmenter.Segment(extracted)
	skills := p.Components.SkillExtractor.ExtractSkills(segments)

	profile := &types.Profile{
		DocumentID:        job.JobID,
		ContentHash:       ContentHash([]byte(combined)),
		VocabularyVersion: p.Settings.VocabularyVersion,
		Skills:            skills,
		ExtractedAt:       p.Settings.Now(),
	}

	if p.Components.Embedder == nil || combined == "" {
		return profile, nil
	}
	profile.ModelVersion = p.Components.Embedder.ModelVersion()

	wholeVec, err := p.Components.Embedder.EmbedText(ctx, combined)
	if err != nil {
		p.Settings.Logger.Warn().Err(err).Str("job_id", job.JobID).Msg("岗位整文档向量计算失败")
		return profile, NewEmbedError(job.JobID, err)
	}
	profile.WholeDocEmbedding = wholeVec

	sectionText := collectSectionText(segments, p.Settings.EmbedSections)
	for _, kind := range p.Settings.EmbedSections {
		text, ok := sectionText[kind]
		if !ok || text == "" {
			continue
		}
		vec, err := p.Components.Embedder.EmbedText(ctx, text)
		if err != nil || len(vec) == 0 {
			continue
		}
		if profile.SectionEmbeddings == nil {
			profile.SectionEmbeddings = make(map[types.SectionKind][]float64)
		}
		profile.SectionEmbeddings[kind] = vec
	}

	return profile, nil
}

// joinBlocks 按顺序拼接全部文本块
func joinBlocks(extracted types.ExtractedText) string {
	var parts []string
	for _, b := range extracted.Blocks {
		if strings.TrimSpace(b.Text) == "" {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}

// collectSectionText 按分区类型聚合分区文本（同类型多分区拼接）
func collectSectionText(segments []types.Segment, kinds []types.SectionKind) map[types.SectionKind]string {
	wanted := make(map[types.SectionKind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}
	out := make(map[types.SectionKind]string)
	for _, seg := range segments {
		if !wanted[seg.Kind] || strings.TrimSpace(seg.Text) == "" {
			continue
		}
		if out[seg.Kind] != "" {
			out[seg.Kind] += "\n"
		}
		out[seg.Kind] += seg.Text
	}
	return out
}

// normalizeBullets 统一bullet符号为标准写法
func normalizeBullets(text string) string {
	return bulletPattern.ReplaceAllString(text, "• ")
}
