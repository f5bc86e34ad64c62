package skill

import (
	"strings"

	"resume-match-go/internal/vocab"

	"github.com/kljensen/snowball/english"
)

// Normalizer 尽力而为的语言学归一化，隔离在窄接口后面，
// 方便替换底层NLP实现而不动匹配逻辑。
type Normalizer interface {
	// Tokens 把文本切成归一化token序列
	Tokens(text string) []string

	// Lemma 返回单个术语的词干形式
	Lemma(term string) string

	// ExpandSynonym 查同义词/缩写表；未命中返回 ("", false)
	ExpandSynonym(term string) (string, bool)
}

// 缩写与写法变体表，移植自平台积累的IT领域词表。
// 值必须是词表里出现的规范写法。
var synonymTable = map[string]string{
	"js":          "javascript",
	"ts":          "typescript",
	"py":          "python",
	"ml":          "machine learning",
	"ai":          "artificial intelligence",
	"k8s":         "kubernetes",
	"reactjs":     "react",
	"react.js":    "react",
	"nodejs":      "node",
	"node.js":     "node",
	"vuejs":       "vue",
	"vue.js":      "vue",
	"angularjs":   "angular",
	"expressjs":   "express",
	"express.js":  "express",
	"nextjs":      "next.js",
	"golang":      "go",
	"postgres":    "postgresql",
	"mongo":       "mongodb",
	"mongo db":    "mongodb",
	"my sql":      "mysql",
	"ms sql":      "mssql",
	"type script": "typescript",
	"java script": "javascript",
	"dotnet":      ".net",
	"ci cd":       "continuous integration",
	"cicd":        "continuous integration",
}

// SnowballNormalizer 默认实现：Snowball英文词干 + 静态同义词表
type SnowballNormalizer struct{}

// NewSnowballNormalizer 创建默认归一化器
func NewSnowballNormalizer() *SnowballNormalizer {
	return &SnowballNormalizer{}
}

// Tokens 实现Normalizer接口
func (n *SnowballNormalizer) Tokens(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := vocab.NormalizeTerm(f)
		if t == "" {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// Lemma 实现Normalizer接口。多词术语逐词词干化后重新拼接。
func (n *SnowballNormalizer) Lemma(term string) string {
	words := strings.Fields(term)
	for i, w := range words {
		words[i] = english.Stem(w, false)
	}
	return strings.Join(words, " ")
}

// ExpandSynonym 实现Normalizer接口
func (n *SnowballNormalizer) ExpandSynonym(term string) (string, bool) {
	expanded, ok := synonymTable[term]
	return expanded, ok
}
