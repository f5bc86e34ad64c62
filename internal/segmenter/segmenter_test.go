package segmenter

import (
	"testing"

	"resume-match-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSegmentClassifiesHeadings 标题行开启对应类型的分区，正文行归入当前分区
func TestSegmentClassifiesHeadings(t *testing.T) {
	extracted := types.ExtractedText{Blocks: []types.TextBlock{
		{Text: "Work Experience\nSoftware engineer at Acme.\nBuilt data pipelines.", Page: 0},
		{Text: "Education\nBS Computer Science", Page: 1},
		{Text: "Skills\nGo, Python, Kubernetes", Page: 1},
	}}

	segments := New().Segment(extracted)
	require.Len(t, segments, 3)

	assert.Equal(t, types.SectionExperience, segments[0].Kind)
	assert.Equal(t, "Software engineer at Acme.\nBuilt data pipelines.", segments[0].Text)

	assert.Equal(t, types.SectionEducation, segments[1].Kind)
	assert.Equal(t, "BS Computer Science", segments[1].Text)

	assert.Equal(t, types.SectionSkills, segments[2].Kind)
	assert.Equal(t, "Go, Python, Kubernetes", segments[2].Text)
}

// TestSegmentLeadingSummaryWindow 首个标题之前靠近开头的内容归入Summary
func TestSegmentLeadingSummaryWindow(t *testing.T) {
	extracted := types.ExtractedText{Blocks: []types.TextBlock{
		{Text: "Jane Doe\njane@example.com\nExperience\nDid things.", Page: 0},
	}}

	segments := New().Segment(extracted)
	require.Len(t, segments, 2)

	assert.Equal(t, types.SectionSummary, segments[0].Kind)
	assert.Equal(t, "Jane Doe\njane@example.com", segments[0].Text)
	assert.Equal(t, types.SectionExperience, segments[1].Kind)
}

// TestSegmentDeterministic 相同输入两次分段产出完全相同的结果
func TestSegmentDeterministic(t *testing.T) {
	extracted := types.ExtractedText{Blocks: []types.TextBlock{
		{Text: "Summary\nEngineer.\nProjects\nBuilt an API.\nSkills\nGo", Page: 0},
	}}

	s := New()
	first := s.Segment(extracted)
	second := s.Segment(extracted)
	assert.Equal(t, first, second)
}

// TestSegmentNoTextDropped 所有非空行都必须落入某个分区
func TestSegmentNoTextDropped(t *testing.T) {
	lines := []string{
		"random preamble line one",
		"random preamble line two",
		"random preamble line three",
		"this line is past the summary window",
		"Experience",
		"did something",
	}
	text := ""
	for i, l := range lines {
		if i > 0 {
			text += "\n"
		}
		text += l
	}

	segments := New().Segment(types.ExtractedText{Blocks: []types.TextBlock{{Text: text}}})

	total := ""
	for _, seg := range segments {
		if total != "" {
			total += "\n"
		}
		total += seg.Text
	}
	for _, l := range lines {
		if l == "Experience" {
			continue // 标题本身不进正文
		}
		assert.Contains(t, total, l)
	}

	// 首个标题之前的内容合并成一个开头分区
	require.Len(t, segments, 2)
	assert.Equal(t, types.SectionSummary, segments[0].Kind)
	assert.Equal(t, types.SectionExperience, segments[1].Kind)
}

// TestSegmentJobRequirements JD侧的Requirements标题优先于其它规则
func TestSegmentJobRequirements(t *testing.T) {
	extracted := types.ExtractedText{Blocks: []types.TextBlock{
		{Text: "Backend Engineer\nWe build systems.\nBasic Requirements\n5 years experience with Go"},
	}}

	segments := New().Segment(extracted)
	require.Len(t, segments, 2)
	assert.Equal(t, types.SectionRequirements, segments[1].Kind)
	assert.Equal(t, "5 years experience with Go", segments[1].Text)
}

// TestSegmentBodyKeywordsStayInBody 正文行含有标题关键词时仍是正文：
// 关键词必须覆盖整行才算标题，否则Requirements段落的要点会被吞掉
func TestSegmentBodyKeywordsStayInBody(t *testing.T) {
	extracted := types.ExtractedText{Blocks: []types.TextBlock{
		{Text: "Requirements\n5 years experience with Go\nstrong communication skills"},
	}}

	segments := New().Segment(extracted)
	require.Len(t, segments, 1)
	assert.Equal(t, types.SectionRequirements, segments[0].Kind)
	assert.Equal(t, "5 years experience with Go\nstrong communication skills", segments[0].Text)
}

// TestSegmentHeadingVariants 常见标题写法（冒号、单复数、修饰词）都能整行命中
func TestSegmentHeadingVariants(t *testing.T) {
	cases := []struct {
		line string
		kind types.SectionKind
	}{
		{"Skills:", types.SectionSkills},
		{"Technical Skills", types.SectionSkills},
		{"Requirement", types.SectionRequirements},
		{"Professional Experience", types.SectionExperience},
		{"PROFESSIONAL SUMMARY", types.SectionSummary},
	}
	for _, tc := range cases {
		kind, isHeading := classifyHeading(tc.line, false)
		assert.True(t, isHeading, tc.line)
		assert.Equal(t, tc.kind, kind, tc.line)
	}

	for _, body := range []string{
		"5 years experience with Go",
		"strong communication skills",
		"education in progress",
	} {
		_, isHeading := classifyHeading(body, false)
		assert.False(t, isHeading, body)
	}
}

// TestSegmentStyleHeading DOCX样式标记的未知标题开启Unclassified分区
func TestSegmentStyleHeading(t *testing.T) {
	extracted := types.ExtractedText{Blocks: []types.TextBlock{
		{Text: "Hobbies", StyleHint: "Heading1"},
		{Text: "chess and hiking"},
	}}

	segments := New().Segment(extracted)
	require.Len(t, segments, 1)
	assert.Equal(t, types.SectionUnclassified, segments[0].Kind)
	assert.Equal(t, "chess and hiking", segments[0].Text)
}

// TestSegmentLongLineNotHeading 超长的行即使包含关键词也不算标题
func TestSegmentLongLineNotHeading(t *testing.T) {
	long := "my experience includes many years of building distributed systems at scale across several teams"
	extracted := types.ExtractedText{Blocks: []types.TextBlock{{Text: long}}}

	segments := New().Segment(extracted)
	require.Len(t, segments, 1)
	// 是正文不是标题，落在开头窗口内归Summary
	assert.Equal(t, types.SectionSummary, segments[0].Kind)
}

// TestSegmentSourceBlocks 分区记录其来源文本块下标
func TestSegmentSourceBlocks(t *testing.T) {
	extracted := types.ExtractedText{Blocks: []types.TextBlock{
		{Text: "Experience\nrole one", Page: 0},
		{Text: "role two continued", Page: 1},
	}}

	segments := New().Segment(extracted)
	require.Len(t, segments, 1)
	assert.Equal(t, []int{0, 1}, segments[0].SourceBlocks)
}

// TestSegmentEmptyInput 空输入产出空分区序列
func TestSegmentEmptyInput(t *testing.T) {
	assert.Empty(t, New().Segment(types.ExtractedText{}))
	assert.Empty(t, New().Segment(types.ExtractedText{Blocks: []types.TextBlock{{Text: "   \n  "}}}))
}
