package matcher

import (
	"testing"
	"time"

	"resume-match-go/internal/types"
	"resume-match-go/internal/vocab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matcherVocabYAML = `
version: "test"
skills:
  - id: "go"
    display_name: "Go"
    aliases: ["golang"]
  - id: "python"
    display_name: "Python"
    aliases: []
  - id: "kubernetes"
    display_name: "Kubernetes"
    aliases: ["k8s"]
  - id: "sql"
    display_name: "SQL"
    aliases: []
`

var fixedTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	v, err := vocab.Parse([]byte(matcherVocabYAML))
	require.NoError(t, err)
	return New(v, types.DefaultScoringWeights(), WithClock(func() time.Time { return fixedTime }))
}

func profileWithSkills(id string, skillIDs ...string) *types.Profile {
	skills := make(map[string]types.ExtractedSkill, len(skillIDs))
	for _, s := range skillIDs {
		skills[s] = types.ExtractedSkill{
			SkillID:    s,
			Confidence: 1.0,
			Section:    types.SectionSkills,
			MatchType:  types.MatchExact,
		}
	}
	return &types.Profile{
		DocumentID:        id,
		VocabularyVersion: "test",
		Skills:            skills,
	}
}

// TestMatchEmptyCandidate 空画像得0分，所有必备技能都缺失，不会报错
func TestMatchEmptyCandidate(t *testing.T) {
	m := newTestMatcher(t)

	candidate := profileWithSkills("cand-1")
	job := profileWithSkills("job-1", "go", "kubernetes")
	required := []string{"go", "kubernetes"}

	result := m.Match(candidate, job, required)
	require.NotNil(t, result)

	assert.Equal(t, 0.0, result.OverallScore)
	assert.Equal(t, 0.0, result.SkillOverlapScore)
	assert.Equal(t, required, result.MissingRequiredSkills)
	assert.Empty(t, result.MatchedSkills)
	assert.True(t, result.Partial, "双方都无向量时必须标记为部分结果")
	assert.Equal(t, PolicyVersion, result.PolicyVersion)
	assert.Equal(t, fixedTime, result.ComputedAt)
}

// TestMatchSkillOverlapWeighting 必备技能权重1.0，可选技能权重0.4
func TestMatchSkillOverlapWeighting(t *testing.T) {
	m := newTestMatcher(t)

	job := profileWithSkills("job-1", "go", "python", "sql")
	required := []string{"go"}

	// 只命中必备技能go：1.0 / (1.0 + 0.4 + 0.4) = 55.55…
	onlyRequired := m.Match(profileWithSkills("cand-a", "go"), job, required)
	assert.InDelta(t, 100.0/1.8, onlyRequired.SkillOverlapScore, 1e-9)

	// 只命中可选技能python：0.4 / 1.8 = 22.22…
	onlyOptional := m.Match(profileWithSkills("cand-b", "python"), job, required)
	assert.InDelta(t, 40.0/1.8, onlyOptional.SkillOverlapScore, 1e-9)

	// 全命中 = 100
	full := m.Match(profileWithSkills("cand-c", "go", "python", "sql"), job, required)
	assert.InDelta(t, 100.0, full.SkillOverlapScore, 1e-9)
	assert.Empty(t, full.MissingRequiredSkills)
}

// TestMatchRequiredNotInJobProfile 岗位声明的必备技能即使没进JD画像也计入分母
func TestMatchRequiredNotInJobProfile(t *testing.T) {
	m := newTestMatcher(t)

	job := profileWithSkills("job-1", "python") // JD画像里只有python
	required := []string{"go"}                  // 但平台声明必备go

	result := m.Match(profileWithSkills("cand-1", "python"), job, required)
	// 命中0.4，分母 0.4 + 1.0
	assert.InDelta(t, 40.0/1.4, result.SkillOverlapScore, 1e-9)
	assert.Equal(t, []string{"go"}, result.MissingRequiredSkills)
}

// TestMatchMonotonicity 多一个命中技能不会降低重合分
func TestMatchMonotonicity(t *testing.T) {
	m := newTestMatcher(t)

	job := profileWithSkills("job-1", "go", "python", "kubernetes", "sql")
	required := []string{"go", "kubernetes"}

	fewer := m.Match(profileWithSkills("cand-a", "go"), job, required)
	more := m.Match(profileWithSkills("cand-b", "go", "python"), job, required)

	assert.GreaterOrEqual(t, more.SkillOverlapScore, fewer.SkillOverlapScore)
	assert.GreaterOrEqual(t, more.OverallScore, fewer.OverallScore)
}

// TestMatchSemanticBlend 双方都有向量时总分是技能分与语义分的加权混合
func TestMatchSemanticBlend(t *testing.T) {
	m := newTestMatcher(t)

	candidate := profileWithSkills("cand-1", "go")
	job := profileWithSkills("job-1", "go")
	// 相同向量 -> 余弦1.0 -> 语义分100
	candidate.WholeDocEmbedding = []float64{1, 2, 3}
	job.WholeDocEmbedding = []float64{1, 2, 3}

	result := m.Match(candidate, job, nil)
	require.False(t, result.Partial)

	// 技能分100，语义分100 -> 0.6*100 + 0.4*100 = 100
	assert.InDelta(t, 100.0, result.SkillOverlapScore, 1e-9)
	assert.InDelta(t, 100.0, result.SemanticSimilarityScore, 1e-9)
	assert.InDelta(t, 100.0, result.OverallScore, 1e-9)

	// 正交向量 -> 余弦0 -> 语义分50
	job.WholeDocEmbedding = []float64{-3, 0, 1}
	candidate.WholeDocEmbedding = []float64{1, 0, 3}
	orthogonal := m.Match(candidate, job, nil)
	assert.InDelta(t, 50.0, orthogonal.SemanticSimilarityScore, 1e-9)
	assert.InDelta(t, 0.6*100+0.4*50, orthogonal.OverallScore, 1e-9)
}

// TestMatchSectionPairBlend 候选人Experience对岗位Requirements的分区对参与语义分
func TestMatchSectionPairBlend(t *testing.T) {
	m := newTestMatcher(t)

	candidate := profileWithSkills("cand-1")
	job := profileWithSkills("job-1")
	candidate.WholeDocEmbedding = []float64{1, 0}
	job.WholeDocEmbedding = []float64{1, 0} // 整文相似度100

	// 分区对正交 -> 相似度50
	candidate.SectionEmbeddings = map[types.SectionKind][]float64{
		types.SectionExperience: {1, 0},
	}
	job.SectionEmbeddings = map[types.SectionKind][]float64{
		types.SectionRequirements: {0, 1},
	}

	result := m.Match(candidate, job, nil)
	// (1-0.3)*100 + 0.3*50 = 85
	assert.InDelta(t, 85.0, result.SemanticSimilarityScore, 1e-9)
}

// TestMatchPartialWhenEmbeddingMissing 任一侧缺向量退化为纯技能分
func TestMatchPartialWhenEmbeddingMissing(t *testing.T) {
	m := newTestMatcher(t)

	candidate := profileWithSkills("cand-1", "go")
	job := profileWithSkills("job-1", "go")
	job.WholeDocEmbedding = []float64{1, 2, 3} // 只有岗位侧有向量

	result := m.Match(candidate, job, nil)
	assert.True(t, result.Partial)
	assert.Equal(t, result.SkillOverlapScore, result.OverallScore)
	assert.Zero(t, result.SemanticSimilarityScore)
}

// TestMatchScoreBounds 各分数始终落在[0,100]
func TestMatchScoreBounds(t *testing.T) {
	m := newTestMatcher(t)

	candidate := profileWithSkills("cand-1", "go", "python", "kubernetes", "sql")
	job := profileWithSkills("job-1", "go", "python", "kubernetes", "sql")
	// 完全相反的向量 -> 余弦-1 -> 重映射后为0
	candidate.WholeDocEmbedding = []float64{1, 1}
	job.WholeDocEmbedding = []float64{-1, -1}

	result := m.Match(candidate, job, nil)
	assert.GreaterOrEqual(t, result.OverallScore, 0.0)
	assert.LessOrEqual(t, result.OverallScore, 100.0)
	assert.InDelta(t, 0.0, result.SemanticSimilarityScore, 1e-9)
}

// TestMatchedSkillsOrdering 匹配技能按置信度乘积降序，平局按ID升序
func TestMatchedSkillsOrdering(t *testing.T) {
	m := newTestMatcher(t)

	candidate := &types.Profile{
		DocumentID: "cand-1",
		Skills: map[string]types.ExtractedSkill{
			"go":         {SkillID: "go", Confidence: 0.8},
			"python":     {SkillID: "python", Confidence: 1.0},
			"kubernetes": {SkillID: "kubernetes", Confidence: 1.0},
		},
	}
	job := profileWithSkills("job-1", "go", "python", "kubernetes")

	result := m.Match(candidate, job, nil)
	require.Len(t, result.MatchedSkills, 3)

	// python和kubernetes乘积都是1.0，按ID升序kubernetes在前；go乘积0.8最后
	assert.Equal(t, "kubernetes", result.MatchedSkills[0].SkillID)
	assert.Equal(t, "python", result.MatchedSkills[1].SkillID)
	assert.Equal(t, "go", result.MatchedSkills[2].SkillID)
	assert.Equal(t, "Kubernetes", result.MatchedSkills[0].DisplayName)
}

// TestRankCandidates 总分降序，平分按候选人ID升序，结果可重现
func TestRankCandidates(t *testing.T) {
	m := newTestMatcher(t)

	job := profileWithSkills("job-1", "go", "python")
	strong := profileWithSkills("cand-strong", "go", "python")
	weak := profileWithSkills("cand-weak", "python")
	tieA := profileWithSkills("cand-a", "go")
	tieB := profileWithSkills("cand-b", "go")

	ranked := m.RankCandidates([]*types.Profile{weak, tieB, strong, tieA}, job, []string{"go"})
	require.Len(t, ranked, 4)

	assert.Equal(t, "cand-strong", ranked[0].CandidateID)
	// go(1.0) > python(0.4)
	assert.Equal(t, "cand-a", ranked[1].CandidateID)
	assert.Equal(t, "cand-b", ranked[2].CandidateID)
	assert.Equal(t, "cand-weak", ranked[3].CandidateID)

	again := m.RankCandidates([]*types.Profile{weak, tieB, strong, tieA}, job, []string{"go"})
	assert.Equal(t, ranked, again)
}

// TestMatchDoesNotMutateProfiles 匹配绝不修改传入的画像
func TestMatchDoesNotMutateProfiles(t *testing.T) {
	m := newTestMatcher(t)

	candidate := profileWithSkills("cand-1", "go")
	job := profileWithSkills("job-1", "go", "python")
	candSkillsBefore := len(candidate.Skills)
	jobSkillsBefore := len(job.Skills)

	m.Match(candidate, job, []string{"kubernetes"})

	assert.Len(t, candidate.Skills, candSkillsBefore)
	assert.Len(t, job.Skills, jobSkillsBefore)
}
