package matcher

import (
	"math"
	"sort"
	"time"

	"resume-match-go/internal/types"
	"resume-match-go/internal/vocab"
)

// PolicyVersion 评分策略版本。策略变更时必须递增，
// 调用方用它标记缓存的MatchResult以便失效。
const PolicyVersion = "v1"

// Matcher 匹配服务：对两份已计算好的画像做纯函数式评分。
// 不持有可变状态，可在任意多个(候选人, 岗位)对上并发调用；绝不修改传入的画像。
type Matcher struct {
	vocabulary *vocab.Vocabulary
	weights    types.ScoringWeights
	now        func() time.Time
}

// MatcherOption Matcher配置选项
type MatcherOption func(*Matcher)

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) MatcherOption {
	return func(m *Matcher) {
		m.now = now
	}
}

// New 创建匹配服务。weights必须先通过config.ValidateScoringWeights校验。
func New(vocabulary *vocab.Vocabulary, weights types.ScoringWeights, options ...MatcherOption) *Matcher {
	m := &Matcher{
		vocabulary: vocabulary,
		weights:    weights,
		now:        time.Now,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Match 计算候选人画像与岗位画像的匹配结果。
// requiredSkillIDs 按岗位声明顺序传入，missing列表保持该顺序。
func (m *Matcher) Match(candidate, job *types.Profile, requiredSkillIDs []string) *types.MatchResult {
	result := &types.MatchResult{
		CandidateID:   candidate.DocumentID,
		JobID:         job.DocumentID,
		PolicyVersion: PolicyVersion,
		ComputedAt:    m.now(),
	}

	required := make(map[string]bool, len(requiredSkillIDs))
	for _, id := range requiredSkillIDs {
		required[id] = true
	}

	result.SkillOverlapScore = m.skillOverlapScore(candidate, job, required)
	result.MatchedSkills = m.matchedSkills(candidate, job, required)
	result.MissingRequiredSkills = missingRequired(candidate, requiredSkillIDs)

	semantic, ok := m.semanticScore(candidate, job)
	if !ok {
		// 任一侧缺少向量：退化为纯技能评分并显式标记部分结果，
		// 绝不把缺失当成满分或零分混进总分
		result.Partial = true
		result.OverallScore = clampScore(result.SkillOverlapScore)
		return result
	}

	result.SemanticSimilarityScore = semantic
	result.OverallScore = clampScore(
		m.weights.SkillBlend*result.SkillOverlapScore + m.weights.SemanticBlend*semantic)
	return result
}

// RankCandidates 对一批候选人画像做岗位维度排序，总分降序。
// 分数相同按候选人ID升序，保证结果可重现。
func (m *Matcher) RankCandidates(candidates []*types.Profile, job *types.Profile, requiredSkillIDs []string) []types.RankedCandidate {
	ranked := make([]types.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, types.RankedCandidate{
			CandidateID: c.DocumentID,
			Result:      m.Match(c, job, requiredSkillIDs),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Result.OverallScore != ranked[j].Result.OverallScore {
			return ranked[i].Result.OverallScore > ranked[j].Result.OverallScore
		}
		return ranked[i].CandidateID < ranked[j].CandidateID
	})
	return ranked
}

// skillOverlapScore 加权技能重合率。必备技能权重高于可选技能，
// 分数 = Σ命中权重 / Σ总权重 × 100。岗位无技能或候选人无技能时为0，不是错误。
func (m *Matcher) skillOverlapScore(candidate, job *types.Profile, required map[string]bool) float64 {
	var totalWeight, matchedWeight float64

	for id := range job.Skills {
		w := m.weights.OptionalSkillWeight
		if required[id] {
			w = m.weights.RequiredSkillWeight
		}
		totalWeight += w
		if _, ok := candidate.Skills[id]; ok {
			matchedWeight += w
		}
	}
	// 岗位声明的必备技能即使没有出现在JD画像里也计入分母
	for id := range required {
		if _, inJob := job.Skills[id]; !inJob {
			totalWeight += m.weights.RequiredSkillWeight
			if _, ok := candidate.Skills[id]; ok {
				matchedWeight += m.weights.RequiredSkillWeight
			}
		}
	}

	if totalWeight <= 0 {
		return 0
	}
	return matchedWeight / totalWeight * 100
}

// semanticScore 语义相似分。整文档向量为主，
// 候选人Experience对岗位Requirements的分区对相似度在两侧都具备时混入。
// 返回ok=false表示任一侧缺少整文档向量。
func (m *Matcher) semanticScore(candidate, job *types.Profile) (float64, bool) {
	if !candidate.HasEmbedding() || !job.HasEmbedding() {
		return 0, false
	}

	whole := rescaleCosine(cosineSimilarity(candidate.WholeDocEmbedding, job.WholeDocEmbedding))

	candExp := candidate.SectionEmbeddings[types.SectionExperience]
	jobReq := job.SectionEmbeddings[types.SectionRequirements]
	if len(candExp) == 0 || len(jobReq) == 0 {
		return whole, true
	}

	pair := rescaleCosine(cosineSimilarity(candExp, jobReq))
	blend := m.weights.SectionPairBlend
	return (1-blend)*whole + blend*pair, true
}

// matchedSkills 双方都命中的技能，按置信度乘积降序；相同乘积按技能ID升序保证确定性
func (m *Matcher) matchedSkills(candidate, job *types.Profile, required map[string]bool) []types.MatchedSkill {
	var matched []types.MatchedSkill
	for id, candSkill := range candidate.Skills {
		jobSkill, ok := job.Skills[id]
		if !ok {
			continue
		}
		matched = append(matched, types.MatchedSkill{
			SkillID:             id,
			DisplayName:         m.vocabulary.DisplayName(id),
			CandidateConfidence: candSkill.Confidence,
			JobConfidence:       jobSkill.Confidence,
			Required:            required[id],
		})
	}
	sort.Slice(matched, func(i, j int) bool {
		pi := matched[i].CandidateConfidence * matched[i].JobConfidence
		pj := matched[j].CandidateConfidence * matched[j].JobConfidence
		if pi != pj {
			return pi > pj
		}
		return matched[i].SkillID < matched[j].SkillID
	})
	return matched
}

// missingRequired 候选人缺失的必备技能，保持岗位声明顺序
func missingRequired(candidate *types.Profile, requiredSkillIDs []string) []string {
	var missing []string
	for _, id := range requiredSkillIDs {
		if _, ok := candidate.Skills[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// cosineSimilarity 余弦相似度。维度不一致或零向量返回0。
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rescaleCosine 把[-1,1]的余弦相似度映射到[0,100]
func rescaleCosine(cos float64) float64 {
	return (cos + 1) / 2 * 100
}

// clampScore 把总分收敛到[0,100]
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
