package segmenter

import (
	"strings"

	"resume-match-go/internal/types"
	"resume-match-go/internal/vocab"
)

// headingRule 标题关键词到分区类型的映射条目
type headingRule struct {
	keyword string
	kind    types.SectionKind
}

// 标题关键词表。整行比对，按声明顺序求值，首个命中生效。
// 关键词沿用招聘文档里常见的英文标题写法；多语言支持需要按地区扩表。
var headingRules = []headingRule{
	// 岗位要求（JD侧）
	{"requirements", types.SectionRequirements},
	{"basic requirements", types.SectionRequirements},
	{"minimum requirements", types.SectionRequirements},
	{"what you will need", types.SectionRequirements},
	{"what we are looking for", types.SectionRequirements},
	// 工作经历
	{"experience", types.SectionExperience},
	{"work experience", types.SectionExperience},
	{"professional experience", types.SectionExperience},
	{"employment history", types.SectionExperience},
	{"work history", types.SectionExperience},
	{"career history", types.SectionExperience},
	{"projects", types.SectionExperience},
	// 教育经历
	{"education", types.SectionEducation},
	{"academic background", types.SectionEducation},
	{"qualifications", types.SectionEducation},
	// 技能
	{"skills", types.SectionSkills},
	{"technical skills", types.SectionSkills},
	{"key skills", types.SectionSkills},
	{"tech stack", types.SectionSkills},
	{"core competencies", types.SectionSkills},
	{"technical expertise", types.SectionSkills},
	{"certifications", types.SectionSkills},
	// 个人概述
	{"summary", types.SectionSummary},
	{"professional summary", types.SectionSummary},
	{"profile", types.SectionSummary},
	{"about me", types.SectionSummary},
	{"objective", types.SectionSummary},
	{"personal statement", types.SectionSummary},
}

// 标题行长度上限。超过它的行几乎不可能是标题。
const maxHeadingLen = 60

// 文档开头被归入Summary而非Unclassified的行数窗口
const leadingSummaryWindow = 3

// Segmenter 把提取出的文本块切分为有序、不重叠的语义分区。
// 纯函数：相同输入永远产出相同分区序列。
type Segmenter struct{}

// New 创建分段器
func New() *Segmenter {
	return &Segmenter{}
}

// Segment 对提取文本做分区。所有输入文本都会落入某个分区，不会静默丢弃。
func (s *Segmenter) Segment(extracted types.ExtractedText) []types.Segment {
	var segments []types.Segment

	// 当前打开的分区
	var open *types.Segment
	lineCount := 0

	appendBody := func(blockIdx int, line string) {
		if open == nil {
			// 首个标题之前的内容：靠近文档开头按Summary处理，否则Unclassified
			kind := types.SectionUnclassified
			if lineCount < leadingSummaryWindow {
				kind = types.SectionSummary
			}
			segments = append(segments, types.Segment{Kind: kind})
			open = &segments[len(segments)-1]
		}
		if open.Text != "" {
			open.Text += "\n"
		}
		open.Text += line
		if n := len(open.SourceBlocks); n == 0 || open.SourceBlocks[n-1] != blockIdx {
			open.SourceBlocks = append(open.SourceBlocks, blockIdx)
		}
	}

	for blockIdx, block := range extracted.Blocks {
		styleHeading := isHeadingStyle(block.StyleHint)
		for _, rawLine := range strings.Split(block.Text, "\n") {
			line := strings.TrimSpace(rawLine)
			if line == "" {
				continue
			}
			kind, isHeading := classifyHeading(line, styleHeading)
			if isHeading {
				segments = append(segments, types.Segment{
					Kind:         kind,
					SourceBlocks: []int{blockIdx},
				})
				open = &segments[len(segments)-1]
			} else {
				appendBody(blockIdx, line)
			}
			lineCount++
		}
	}

	return segments
}

// classifyHeading 判断一行是否为标题，并给出对应分区类型。
// 关键词必须覆盖整行（容忍尾部冒号与单复数），否则正文里提到
// "5 years experience" 这类短句也会被吞成标题，正文内容凭空消失。
// 样式提示（DOCX的Heading样式）可以放宽长度判断，但分区类型仍由关键词表决定。
func classifyHeading(line string, styleHeading bool) (types.SectionKind, bool) {
	if !styleHeading && len(line) > maxHeadingLen {
		return "", false
	}

	normalized := vocab.NormalizeTerm(strings.TrimSuffix(strings.TrimSpace(line), ":"))
	if normalized == "" {
		return "", false
	}

	for _, rule := range headingRules {
		if matchesHeading(normalized, rule.keyword) {
			return rule.kind, true
		}
	}

	if styleHeading {
		// 样式说它是标题但关键词表不认识：开一个未分类分区，内容不丢
		return types.SectionUnclassified, true
	}
	return "", false
}

// matchesHeading 整行比对关键词，单复数视为同一标题（"Requirement" == "Requirements"）
func matchesHeading(line, keyword string) bool {
	if line == keyword {
		return true
	}
	return strings.TrimSuffix(line, "s") == strings.TrimSuffix(keyword, "s")
}

// isHeadingStyle 判断样式提示是否表示标题
func isHeadingStyle(styleHint string) bool {
	if styleHint == "" {
		return false
	}
	s := strings.ToLower(styleHint)
	return strings.Contains(s, "heading") || strings.Contains(s, "title")
}
