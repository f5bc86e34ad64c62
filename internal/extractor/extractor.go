package extractor

import (
	"context"
	"errors"
	"fmt"

	"resume-match-go/internal/types"
)

// 提取阶段的错误类型。按文档隔离，不会中断批处理。
var (
	ErrUnsupportedFormat = errors.New("不支持的文档格式")
	ErrExtractionFailure = errors.New("文档内容提取失败")
)

// Extractor 文档提取器：把二进制文档转换为有序文本块。
// 空文档或纯图片文档产出零块，不视为错误。
type Extractor interface {
	// Extract 提取文档文本。调用方通过ctx控制超时。
	Extract(ctx context.Context, doc types.RawDocument) (types.ExtractedText, error)
}

// FormatDispatcher 按声明格式分发到具体提取器
type FormatDispatcher struct {
	pdf  Extractor
	docx Extractor
}

// NewFormatDispatcher 创建格式分发器
func NewFormatDispatcher(pdf, docx Extractor) *FormatDispatcher {
	return &FormatDispatcher{pdf: pdf, docx: docx}
}

// Extract 实现Extractor接口
func (d *FormatDispatcher) Extract(ctx context.Context, doc types.RawDocument) (types.ExtractedText, error) {
	switch doc.Format {
	case types.FormatPDF:
		if d.pdf == nil {
			return types.ExtractedText{}, fmt.Errorf("%w: 未配置PDF提取器", ErrUnsupportedFormat)
		}
		return d.pdf.Extract(ctx, doc)
	case types.FormatDOCX:
		if d.docx == nil {
			return types.ExtractedText{}, fmt.Errorf("%w: 未配置DOCX提取器", ErrUnsupportedFormat)
		}
		return d.docx.Extract(ctx, doc)
	default:
		return types.ExtractedText{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, doc.Format)
	}
}

// failureErr 构造统一的ExtractionFailure错误，附带格式与原因
func failureErr(format types.DocumentFormat, reason string, err error) error {
	if err != nil {
		return fmt.Errorf("%w (格式:%s, 原因:%s): %v", ErrExtractionFailure, format, reason, err)
	}
	return fmt.Errorf("%w (格式:%s, 原因:%s)", ErrExtractionFailure, format, reason)
}
