package config

import (
	"os"
	"path/filepath"
	"testing"

	"resume-match-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigAppliesDefaults 缺省字段自动填充
func TestLoadConfigAppliesDefaults(t *testing.T) {
	yamlContent := `
vocabulary:
  path: "vocabulary.yaml"
embedding:
  api_key: "key"
  base_url: "http://localhost"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 30, cfg.Embedding.TimeoutSeconds)
	assert.Equal(t, 480, cfg.Embedding.MaxInputTokens)
	assert.Equal(t, 30, cfg.Redis.DocHashExpireDays)
	assert.Equal(t, 5, cfg.RabbitMQ.PrefetchCount)

	// 未配置评分权重时回落到默认策略
	assert.Equal(t, types.DefaultScoringWeights(), cfg.Scoring)
	require.NoError(t, cfg.Validate())
}

// TestLoadConfigEnvOverride 环境变量覆盖密钥类配置
func TestLoadConfigEnvOverride(t *testing.T) {
	yamlContent := `
vocabulary:
  path: "vocabulary.yaml"
embedding:
  api_key: "from-file"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("EMBEDDING_API_KEY", "from-env")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Embedding.APIKey)
}

// TestLoadConfigInvalidScoringRejectedAtStartup 带非法评分权重的配置文件
// 能加载成功（默认值只补全零值），但启动期的Validate必须拒绝它
func TestLoadConfigInvalidScoringRejectedAtStartup(t *testing.T) {
	yamlContent := `
vocabulary:
  path: "vocabulary.yaml"
scoring:
  required_skill_weight: 1.0
  optional_skill_weight: 0.4
  skill_blend: 0.9
  semantic_blend: 0.9
  section_pair_blend: 0.3
  fuzzy_threshold: 0.85
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err, "加载本身成功，非法值由Validate拦截")

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScoringConfig)
}

// TestLoadConfigMissingFile 文件不存在返回可识别的错误
func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

// TestValidateScoringWeights 评分权重的各种非法形态都必须被拒绝
func TestValidateScoringWeights(t *testing.T) {
	valid := types.DefaultScoringWeights()
	require.NoError(t, ValidateScoringWeights(valid))

	cases := []struct {
		name   string
		mutate func(*types.ScoringWeights)
	}{
		{"负的必备技能权重", func(w *types.ScoringWeights) { w.RequiredSkillWeight = -1 }},
		{"负的可选技能权重", func(w *types.ScoringWeights) { w.OptionalSkillWeight = -0.1 }},
		{"混合比例超界", func(w *types.ScoringWeights) { w.SkillBlend = 1.2; w.SemanticBlend = -0.2 }},
		{"混合比例之和不为1", func(w *types.ScoringWeights) { w.SkillBlend = 0.5; w.SemanticBlend = 0.4 }},
		{"分区对占比超界", func(w *types.ScoringWeights) { w.SectionPairBlend = 1.5 }},
		{"模糊阈值为0", func(w *types.ScoringWeights) { w.FuzzyThreshold = 0 }},
		{"模糊阈值超过1", func(w *types.ScoringWeights) { w.FuzzyThreshold = 1.1 }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := valid
			c.mutate(&w)
			err := ValidateScoringWeights(w)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidScoringConfig)
		})
	}
}

// TestValidateRequiresVocabularyPath 未配置词表路径不能启动
func TestValidateRequiresVocabularyPath(t *testing.T) {
	cfg := &Config{Scoring: types.DefaultScoringWeights()}
	assert.Error(t, cfg.Validate())
}

// TestCacheTTLDefault 缓存TTL缺省为一周
func TestCacheTTLDefault(t *testing.T) {
	var e EmbeddingConfig
	assert.Equal(t, 168.0, e.CacheTTL().Hours())

	e.CacheTTLHours = 2
	assert.Equal(t, 2.0, e.CacheTTL().Hours())
}
