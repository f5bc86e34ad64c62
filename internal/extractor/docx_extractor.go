package extractor

import (
	"bytes"
	"context"
	"strings"

	"resume-match-go/internal/types"

	"github.com/fumiama/go-docx"
	"github.com/rs/zerolog"
)

// DocxExtractor 按段落提取Word文档文本。
// 段落样式名（如 Heading1）直接作为 StyleHint 传给下游。
type DocxExtractor struct {
	logger zerolog.Logger
}

// DocxOption DOCX提取器的配置选项
type DocxOption func(*DocxExtractor)

// WithDocxLogger 配置自定义日志记录器
func WithDocxLogger(logger zerolog.Logger) DocxOption {
	return func(d *DocxExtractor) {
		d.logger = logger
	}
}

// NewDocxExtractor 创建DOCX提取器
func NewDocxExtractor(options ...DocxOption) *DocxExtractor {
	extractor := &DocxExtractor{logger: zerolog.Nop()}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// Extract 实现Extractor接口，逐段落提取文本和样式提示
func (d *DocxExtractor) Extract(ctx context.Context, doc types.RawDocument) (types.ExtractedText, error) {
	if len(doc.Content) == 0 {
		return types.ExtractedText{}, nil
	}
	// 解析无法响应ctx取消，DOCX在内存中解包，耗时可忽略；这里只检查入口
	if err := ctx.Err(); err != nil {
		return types.ExtractedText{}, failureErr(types.FormatDOCX, "上下文已取消", err)
	}

	parsed, err := docx.Parse(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		d.logger.Debug().
			Str("document_id", doc.DocumentID).
			Err(err).
			Msg("DOCX解析失败")
		return types.ExtractedText{}, failureErr(types.FormatDOCX, "解析DOCX内容", err)
	}

	var result types.ExtractedText
	index := 0
	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := strings.TrimSpace(paragraphText(para))
		if text == "" {
			continue
		}
		result.Blocks = append(result.Blocks, types.TextBlock{
			Text:      text,
			Page:      index,
			StyleHint: paragraphStyle(para),
		})
		index++
	}

	d.logger.Debug().
		Str("document_id", doc.DocumentID).
		Int("blocks", len(result.Blocks)).
		Msg("DOCX提取完成")
	return result, nil
}

// paragraphText 拼接段落内全部Run的文本
func paragraphText(p *docx.Paragraph) string {
	var b strings.Builder
	for _, child := range p.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				b.WriteString(t.Text)
			}
		}
	}
	return b.String()
}

// paragraphStyle 取段落样式名作为样式提示；无样式返回空串
func paragraphStyle(p *docx.Paragraph) string {
	if p.Properties == nil || p.Properties.Style == nil {
		return ""
	}
	return p.Properties.Style.Val
}
