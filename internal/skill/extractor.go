package skill

import (
	"strings"

	"resume-match-go/internal/types"
	"resume-match-go/internal/vocab"

	"github.com/agnivade/levenshtein"
)

// 置信度常量。Exact恒为1.0，Alias恒为0.8，Fuzzy在[threshold,1.0]内线性取值。
const (
	exactConfidence = 1.0
	aliasConfidence = 0.8
)

// n-gram窗口上限：最多3个token
const maxNGram = 3

// 参与模糊匹配的最小术语长度，太短的token做编辑距离只会产生噪声
const minFuzzyLen = 5

// Extractor 技能抽取器。对分区文本做分层n-gram匹配：
// 精确 > 别名/词干 > 模糊，同一文本跨度贪心保留最长命中。
type Extractor struct {
	vocabulary *vocab.Vocabulary
	normalizer Normalizer
	threshold  float64 // 模糊匹配相似度阈值

	terms   map[string]string // 归一化术语 -> 技能ID（精确层）
	lemmas  map[string]string // 词干化术语 -> 技能ID（别名层）
	entries []termEntry       // 模糊层扫描用的术语清单
}

// termEntry 模糊匹配候选
type termEntry struct {
	term      string
	skillID   string
	tokenCnt  int
}

// NewExtractor 创建技能抽取器，预构建词表索引
func NewExtractor(vocabulary *vocab.Vocabulary, normalizer Normalizer, fuzzyThreshold float64) *Extractor {
	e := &Extractor{
		vocabulary: vocabulary,
		normalizer: normalizer,
		threshold:  fuzzyThreshold,
		terms:      vocabulary.Terms(),
		lemmas:     make(map[string]string),
	}

	for term, id := range e.terms {
		lemma := normalizer.Lemma(term)
		if lemma != term {
			// 词干与原词冲突时精确层优先，不覆盖
			if _, taken := e.terms[lemma]; !taken {
				e.lemmas[lemma] = id
			}
		}
		e.entries = append(e.entries, termEntry{
			term:     term,
			skillID:  id,
			tokenCnt: len(strings.Fields(term)),
		})
	}
	return e
}

// ExtractFromSegment 抽取单个分区内的技能命中。
// 幂等：同一分区与词表两次调用产出完全相同的结果。
func (e *Extractor) ExtractFromSegment(segment types.Segment) []types.ExtractedSkill {
	tokens := e.normalizer.Tokens(segment.Text)
	if len(tokens) == 0 {
		return nil
	}

	claimed := make([]bool, len(tokens))
	var hits []types.ExtractedSkill

	// 贪心最长优先：先扫3-gram，再2-gram，最后1-gram。
	// 命中后占用token位置，避免 "machine learning" 再次命中 "learning"。
	for n := maxNGram; n >= 1; n-- {
		for i := 0; i+n <= len(tokens); i++ {
			if anyClaimed(claimed, i, n) {
				continue
			}
			ngram := strings.Join(tokens[i:i+n], " ")
			skillID, confidence, matchType, ok := e.matchNGram(ngram, n)
			if !ok {
				continue
			}
			for j := i; j < i+n; j++ {
				claimed[j] = true
			}
			hits = append(hits, types.ExtractedSkill{
				SkillID:    skillID,
				Confidence: confidence,
				Section:    segment.Kind,
				MatchType:  matchType,
			})
		}
	}
	return hits
}

// ExtractSkills 抽取全部分区并做文档级去重：
// 每个规范技能只保留最高置信度的命中，并记录其来源分区。
func (e *Extractor) ExtractSkills(segments []types.Segment) map[string]types.ExtractedSkill {
	result := make(map[string]types.ExtractedSkill)
	for _, segment := range segments {
		for _, hit := range e.ExtractFromSegment(segment) {
			existing, seen := result[hit.SkillID]
			if !seen || hit.Confidence > existing.Confidence {
				result[hit.SkillID] = hit
			}
		}
	}
	return result
}

// matchNGram 按层级匹配单个n-gram
func (e *Extractor) matchNGram(ngram string, tokenCount int) (string, float64, types.MatchType, bool) {
	// 第一层：规范名或词表别名的精确命中
	if id, ok := e.terms[ngram]; ok {
		return id, exactConfidence, types.MatchExact, true
	}

	// 第二层：同义词表展开
	if expanded, ok := e.normalizer.ExpandSynonym(ngram); ok {
		if id, found := e.terms[expanded]; found {
			return id, aliasConfidence, types.MatchAlias, true
		}
	}
	// 第二层：词干化命中
	if lemma := e.normalizer.Lemma(ngram); lemma != ngram {
		if id, ok := e.terms[lemma]; ok {
			return id, aliasConfidence, types.MatchAlias, true
		}
		if id, ok := e.lemmas[lemma]; ok {
			return id, aliasConfidence, types.MatchAlias, true
		}
	} else if id, ok := e.lemmas[lemma]; ok {
		return id, aliasConfidence, types.MatchAlias, true
	}

	// 第三层：编辑距离相似度，只对同token数且足够长的术语比较
	if len(ngram) >= minFuzzyLen {
		bestSim := 0.0
		bestID := ""
		for _, entry := range e.entries {
			if entry.tokenCnt != tokenCount || len(entry.term) < minFuzzyLen {
				continue
			}
			sim := editSimilarity(ngram, entry.term)
			if sim > bestSim {
				bestSim = sim
				bestID = entry.skillID
			}
		}
		// 恰好等于阈值时接受
		if bestID != "" && bestSim >= e.threshold {
			return bestID, bestSim, types.MatchFuzzy, true
		}
	}

	return "", 0, "", false
}

// editSimilarity 归一化编辑距离相似度：1 - dist/maxLen
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// anyClaimed 判断[i, i+n)内是否有token已被更长的命中占用
func anyClaimed(claimed []bool, i, n int) bool {
	for j := i; j < i+n; j++ {
		if claimed[j] {
			return true
		}
	}
	return false
}
