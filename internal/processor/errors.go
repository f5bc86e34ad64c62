package processor

import (
	"errors"
	"fmt"
)

// 画像流水线的基础错误类型。均为单文档级错误，不中断批处理。
var (
	ErrDocumentFetchFailed = errors.New("下载文档失败")
	ErrExtractFailed       = errors.New("提取文档文本失败")
	ErrEmbedFailed         = errors.New("计算文档向量失败")
	ErrStoreProfileFailed  = errors.New("写入画像失败")
	ErrPublishEventFailed  = errors.New("发布画像事件失败")
)

// ProfileProcessError 包含文档ID、阶段与底层原因的流水线错误，
// 平台侧据此向用户呈现可操作的错误信息
type ProfileProcessError struct {
	DocumentID string
	Stage      string
	BaseErr    error
	Detail     string
}

func (e *ProfileProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (阶段:%s, 文档:%s): %s", e.BaseErr, e.Stage, e.DocumentID, e.Detail)
	}
	return fmt.Sprintf("%s (阶段:%s, 文档:%s)", e.BaseErr, e.Stage, e.DocumentID)
}

func (e *ProfileProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ProfileProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewFetchError(documentID, detail string) error {
	return &ProfileProcessError{
		DocumentID: documentID,
		Stage:      "fetch",
		BaseErr:    ErrDocumentFetchFailed,
		Detail:     detail,
	}
}

func NewExtractError(documentID string, cause error) error {
	return &ProfileProcessError{
		DocumentID: documentID,
		Stage:      "extract",
		BaseErr:    cause, // 保留UnsupportedFormat/ExtractionFailure语义
	}
}

func NewEmbedError(documentID string, cause error) error {
	return &ProfileProcessError{
		DocumentID: documentID,
		Stage:      "embed",
		BaseErr:    cause,
		Detail:     ErrEmbedFailed.Error(),
	}
}

func NewStoreError(documentID, detail string) error {
	return &ProfileProcessError{
		DocumentID: documentID,
		Stage:      "store",
		BaseErr:    ErrStoreProfileFailed,
		Detail:     detail,
	}
}

func NewPublishError(documentID, detail string) error {
	return &ProfileProcessError{
		DocumentID: documentID,
		Stage:      "publish",
		BaseErr:    ErrPublishEventFailed,
		Detail:     detail,
	}
}
