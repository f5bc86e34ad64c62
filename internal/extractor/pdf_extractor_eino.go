package extractor

import (
	"bytes"
	"context"
	"strings"
	"time"

	"resume-match-go/internal/types"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

// EinoPDFExtractor 使用 Eino PDF Parser 按页提取文本。
// 每一页产出一个TextBlock，页边界即块边界。
type EinoPDFExtractor struct {
	parser *pdf.PDFParser
	logger zerolog.Logger
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFExtractor)

// WithPDFLogger 配置自定义日志记录器
func WithPDFLogger(logger zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		e.logger = logger
	}
}

// NewEinoPDFExtractor 初始化 Eino PDF 文本提取器。
// ToPages 设为 true：保留页边界，下游分段需要它。
func NewEinoPDFExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true,
	})
	if err != nil {
		return nil, failureErr(types.FormatPDF, "创建Eino PDF解析器失败", err)
	}

	extractor := &EinoPDFExtractor{
		parser: p,
		logger: zerolog.Nop(),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// Extract 实现Extractor接口，从PDF字节提取按页文本块
func (e *EinoPDFExtractor) Extract(ctx context.Context, doc types.RawDocument) (types.ExtractedText, error) {
	startTime := time.Now()
	e.logger.Debug().
		Str("document_id", doc.DocumentID).
		Int("bytes", len(doc.Content)).
		Msg("开始提取PDF文本")

	if len(doc.Content) == 0 {
		// 空文档不是错误，产出零块由下游处理
		return types.ExtractedText{}, nil
	}

	docs, err := e.parser.Parse(ctx, bytes.NewReader(doc.Content),
		einoParser.WithURI(doc.DocumentID),
	)
	if err != nil {
		e.logger.Debug().
			Str("document_id", doc.DocumentID).
			Dur("elapsed", time.Since(startTime)).
			Err(err).
			Msg("PDF解析失败")
		return types.ExtractedText{}, failureErr(types.FormatPDF, "解析PDF内容", err)
	}

	var result types.ExtractedText
	for i, d := range docs {
		text := strings.TrimSpace(d.Content)
		if text == "" {
			// 纯图片页：跳过但不报错
			continue
		}
		result.Blocks = append(result.Blocks, types.TextBlock{
			Text: text,
			Page: i,
		})
	}

	e.logger.Debug().
		Str("document_id", doc.DocumentID).
		Int("pages", len(docs)).
		Int("blocks", len(result.Blocks)).
		Dur("elapsed", time.Since(startTime)).
		Msg("PDF提取完成")
	return result, nil
}
