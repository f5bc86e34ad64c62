package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resume-match-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbeddingConfig(url string) config.EmbeddingConfig {
	return config.EmbeddingConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-embedding-model",
	}
}

// TestEmbedStringsSuccess 正常响应解析出与输入等量的向量
func TestEmbedStringsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-embedding-model", req["model"])

		resp := map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{"object": "embedding", "embedding": []float64{0.1, 0.2}, "index": 0},
				{"object": "embedding", "embedding": []float64{0.3, 0.4}, "index": 1},
			},
			"model": "test-embedding-model",
			"usage": map[string]int{"prompt_tokens": 8, "total_tokens": 8},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(testEmbeddingConfig(server.URL))
	require.NoError(t, err)

	vectors, err := e.EmbedStrings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float64{0.3, 0.4}, vectors[1])
}

// TestEmbedStringsOutOfOrderResponse 响应条目乱序时按index字段归位
func TestEmbedStringsOutOfOrderResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{"object": "embedding", "embedding": []float64{0.3, 0.4}, "index": 1},
				{"object": "embedding", "embedding": []float64{0.1, 0.2}, "index": 0},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(testEmbeddingConfig(server.URL),
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	require.NoError(t, err)

	vectors, err := e.EmbedStrings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0.1, 0.2}, vectors[0], "index=0的向量必须归到第一个输入")
	assert.Equal(t, []float64{0.3, 0.4}, vectors[1])
}

// TestEmbedStringsAPIError 非200响应包装为ErrEmbeddingUnavailable
func TestEmbedStringsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "rate limit exceeded",
			"type":    "rate_limit_error",
		})
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(testEmbeddingConfig(server.URL))
	require.NoError(t, err)

	_, err = e.EmbedStrings(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

// TestEmbedStringsCountMismatch 返回向量数量与输入不符视为服务不可用
func TestEmbedStringsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{"object": "embedding", "embedding": []float64{0.1}, "index": 0},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(testEmbeddingConfig(server.URL))
	require.NoError(t, err)

	_, err = e.EmbedStrings(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

// TestEmbedStringsServerDown 服务不可达同样包装为ErrEmbeddingUnavailable
func TestEmbedStringsServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 立即关掉

	e, err := NewHTTPEmbedder(testEmbeddingConfig(server.URL))
	require.NoError(t, err)

	_, err = e.EmbedStrings(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

// TestEmbedStringsEmptyInput 空输入直接返回空结果，不发请求
func TestEmbedStringsEmptyInput(t *testing.T) {
	e, err := NewHTTPEmbedder(testEmbeddingConfig("http://localhost:1"))
	require.NoError(t, err)

	vectors, err := e.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

// TestNewHTTPEmbedderValidation 缺少密钥或端点时拒绝创建
func TestNewHTTPEmbedderValidation(t *testing.T) {
	_, err := NewHTTPEmbedder(config.EmbeddingConfig{BaseURL: "http://x"})
	assert.Error(t, err)

	_, err = NewHTTPEmbedder(config.EmbeddingConfig{APIKey: "k"})
	assert.Error(t, err)

	e, err := NewHTTPEmbedder(config.EmbeddingConfig{APIKey: "k", BaseURL: "http://x", Dimensions: 1024})
	require.NoError(t, err)
	assert.Equal(t, 1024, e.GetDimensions())
	assert.Equal(t, "text-embedding-v3", e.ModelVersion(), "未配置模型名时使用默认模型")
}
