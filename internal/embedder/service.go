package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// TextEmbedder 文本向量化接口（符合 cloudwego/eino 规范）
type TextEmbedder interface {
	EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error)
}

// VectorCache 内容寻址的向量缓存。键 = (模型版本, 内容哈希)。
// 纯性能优化：缓存失效只浪费一次重算，不影响正确性。
type VectorCache interface {
	// GetVector 查缓存；未命中返回 (nil, false, nil)
	GetVector(ctx context.Context, key string) ([]float64, bool, error)
	// SetVector 写缓存
	SetVector(ctx context.Context, key string, vector []float64) error
}

// Service 在原始嵌入客户端之上增加长文本分块平均与内容寻址缓存
type Service struct {
	embedder     TextEmbedder
	modelVersion string
	maxTokens    int // 单次输入的近似token上限（按空白分词）
	cache        VectorCache
	logger       zerolog.Logger
}

// ServiceOption Service配置选项
type ServiceOption func(*Service)

// WithVectorCache 配置向量缓存
func WithVectorCache(cache VectorCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithServiceLogger 配置日志记录器
func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService 创建嵌入服务
func NewService(textEmbedder TextEmbedder, modelVersion string, maxTokens int, options ...ServiceOption) (*Service, error) {
	if textEmbedder == nil {
		return nil, fmt.Errorf("textEmbedder不能为nil")
	}
	if maxTokens <= 0 {
		maxTokens = 480
	}
	s := &Service{
		embedder:     textEmbedder,
		modelVersion: modelVersion,
		maxTokens:    maxTokens,
		logger:       zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// ModelVersion 返回模型版本标签
func (s *Service) ModelVersion() string {
	return s.modelVersion
}

// ContentKey 计算内容寻址缓存键：模型版本 + sha256(文本)
func (s *Service) ContentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return s.modelVersion + ":" + hex.EncodeToString(sum[:])
}

// EmbedText 把任意长度的文本映射为固定维度向量。
// 超长输入按前导token切块，多块时做逐元素平均，保证输出维度恒定。
// 空文本返回nil向量而非错误。
func (s *Service) EmbedText(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	key := s.ContentKey(text)
	if s.cache != nil {
		if vec, hit, err := s.cache.GetVector(ctx, key); err == nil && hit {
			return vec, nil
		}
		// 缓存读失败走重算，不向上冒泡
	}

	chunks := s.chunk(text)
	vectors, err := s.embedder.EmbedStrings(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: 返回了空向量", ErrEmbeddingUnavailable)
	}

	vector := vectors[0]
	if len(vectors) > 1 {
		vector = averageVectors(vectors)
	}

	if s.cache != nil {
		if err := s.cache.SetVector(ctx, key, vector); err != nil {
			s.logger.Warn().Err(err).Msg("写入向量缓存失败")
		}
	}
	return vector, nil
}

// chunk 按空白token近似切块，保留前导token顺序
func (s *Service) chunk(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) <= s.maxTokens {
		return []string{text}
	}
	var chunks []string
	for i := 0; i < len(tokens); i += s.maxTokens {
		end := i + s.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[i:end], " "))
	}
	return chunks
}

// averageVectors 逐元素平均，维度以首个向量为准
func averageVectors(vectors [][]float64) []float64 {
	dim := len(vectors[0])
	avg := make([]float64, dim)
	count := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			avg[i] += x
		}
		count++
	}
	if count == 0 {
		return vectors[0]
	}
	for i := range avg {
		avg[i] /= float64(count)
	}
	return avg
}

// MemoryVectorCache 进程内向量缓存，Redis不可用时的兜底
type MemoryVectorCache struct {
	mu      sync.RWMutex
	vectors map[string][]float64
}

// NewMemoryVectorCache 创建内存向量缓存
func NewMemoryVectorCache() *MemoryVectorCache {
	return &MemoryVectorCache{vectors: make(map[string][]float64)}
}

// GetVector 实现VectorCache接口
func (m *MemoryVectorCache) GetVector(_ context.Context, key string) ([]float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vec, ok := m.vectors[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]float64, len(vec))
	copy(out, vec)
	return out, true, nil
}

// SetVector 实现VectorCache接口
func (m *MemoryVectorCache) SetVector(_ context.Context, key string, vector []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]float64, len(vector))
	copy(stored, vector)
	m.vectors[key] = stored
	return nil
}
