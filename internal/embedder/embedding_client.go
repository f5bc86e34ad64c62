package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"resume-match-go/internal/config"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// ErrEmbeddingUnavailable 嵌入模型不可用（服务不可达、超时或返回错误）。
// 按文档降级处理：匹配退化为纯技能重合评分，而不是整体失败。
var ErrEmbeddingUnavailable = errors.New("嵌入服务不可用")

// HTTPEmbedder 通过OpenAI兼容HTTP端点计算文本向量，
// 无状态，输出只由(文本, 模型版本)决定。实现 cloudwego/eino 的 embedding.Embedder 约定。
type HTTPEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// HTTPEmbedderOption 配置选项
type HTTPEmbedderOption func(*HTTPEmbedder)

// WithEmbedderLogger 配置自定义日志记录器
func WithEmbedderLogger(logger zerolog.Logger) HTTPEmbedderOption {
	return func(e *HTTPEmbedder) {
		e.logger = logger
	}
}

// WithHTTPClient 替换HTTP客户端（测试用）
func WithHTTPClient(client *http.Client) HTTPEmbedderOption {
	return func(e *HTTPEmbedder) {
		e.httpClient = client
	}
}

// NewHTTPEmbedder 创建嵌入客户端
func NewHTTPEmbedder(cfg config.EmbeddingConfig, options ...HTTPEmbedderOption) (*HTTPEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("嵌入端点base_url不能为空")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-v3"
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	e := &HTTPEmbedder{
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cfg.Dimensions,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zerolog.Nop(),
	}
	for _, option := range options {
		option(e)
	}
	return e, nil
}

// ModelVersion 返回模型标识，用于画像与缓存的版本标签
func (e *HTTPEmbedder) ModelVersion() string {
	return e.model
}

// GetDimensions 返回向量维度
func (e *HTTPEmbedder) GetDimensions() int {
	return e.dimensions
}

// openAIEmbeddingRequest OpenAI兼容的请求结构
type openAIEmbeddingRequest struct {
	Input          interface{} `json:"input"` // string 或 []string
	Model          string      `json:"model"`
	Dimensions     int         `json:"dimensions,omitempty"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
}

// openAIEmbeddingResponse OpenAI兼容的响应结构
type openAIEmbeddingResponse struct {
	Object string              `json:"object"`
	Data   []openAIDataEntry   `json:"data"`
	Model  string              `json:"model"`
	Usage  openAIUsage         `json:"usage"`
	Error  *openAIErrorPayload `json:"error,omitempty"`
}

type openAIDataEntry struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type openAIUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// openAIErrorPayload API级错误，可能随200一起返回
type openAIErrorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// EmbedStrings 将一批文本转换为向量，实现 eino 的 embedding.Embedder 接口
func (e *HTTPEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	options := &embedding.Options{}
	embedding.GetCommonOptions(options, opts...)

	effectiveModel := e.model
	if options.Model != nil && *options.Model != "" {
		effectiveModel = *options.Model
	}

	var inputBody interface{}
	if len(texts) == 1 {
		inputBody = texts[0]
	} else {
		inputBody = texts
	}

	reqBody := openAIEmbeddingRequest{
		Input: inputBody,
		Model: effectiveModel,
	}
	if e.dimensions > 0 {
		reqBody.Dimensions = e.dimensions
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化嵌入请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Warn().Err(err).Str("model", effectiveModel).Msg("嵌入请求失败")
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取响应体: %v", ErrEmbeddingUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr openAIErrorPayload
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%w: 状态码%d, 类型=%s, 错误=%s", ErrEmbeddingUnavailable, resp.StatusCode, apiErr.Type, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: 状态码%d", ErrEmbeddingUnavailable, resp.StatusCode)
	}

	var parsed openAIEmbeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: 解析响应JSON: %v", ErrEmbeddingUnavailable, err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("%w: API返回错误 类型=%s 消息=%s", ErrEmbeddingUnavailable, parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("%w: 向量数量不符, 期望%d实际%d", ErrEmbeddingUnavailable, len(texts), len(parsed.Data))
	}

	// 响应条目可能乱序返回，按index字段归位；index非法或重复时按出现顺序兜底
	out := make([][]float64, len(parsed.Data))
	for i, entry := range parsed.Data {
		idx := entry.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = i
		}
		out[idx] = entry.Embedding
	}

	e.logger.Debug().
		Str("model", effectiveModel).
		Int("texts", len(texts)).
		Int("prompt_tokens", parsed.Usage.PromptTokens).
		Dur("elapsed", time.Since(start)).
		Msg("嵌入完成")
	return out, nil
}
