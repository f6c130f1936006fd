package service

import (
	"context"
	"io"
	"strings"

	"oceanai_dev_v1/internal/model"
	apperr "oceanai_dev_v1/pkg/errors"
)

// ==================== 流式生成 ====================

// StreamEventType 流事件类型
type StreamEventType string

const (
	StreamEventChunk    StreamEventType = "chunk"    // 文本增量
	StreamEventComplete StreamEventType = "complete" // 正常结束，携带解析后的完整内容
	StreamEventError    StreamEventType = "error"    // 异常结束
)

// StreamEvent 流式生成事件
// 事件序列为若干 chunk 后接恰好一个终止事件（complete 或 error）
type StreamEvent struct {
	Type    StreamEventType
	Chunk   string                 // Type == chunk 时有效
	Content *model.DocumentContent // Type == complete 时有效
	Err     error                  // Type == error 时有效
}

// GenerateDocumentStream 流式生成文档内容
// 增量片段按到达顺序发出，全部片段拼接后等于最终解析所用的完整文本；
// 解析只在流结束后对完整缓冲执行一次，结果随 complete 事件返回，
// 持久化由调用方在收到 complete 后自行处理
func (s *GeneratorService) GenerateDocumentStream(ctx context.Context, topic string, docType model.DocumentType) (<-chan StreamEvent, error) {
	if !docType.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidParam, "不支持的文档类型: %s", docType)
	}

	stream, err := s.provider.GenerateStream(ctx, buildGeneratePrompt(topic, docType))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeGenerationFailed, "流式生成启动失败")
	}

	events := make(chan StreamEvent, 16)
	go s.pumpStream(ctx, stream, docType, events)
	return events, nil
}

// pumpStream 读取底层流并向事件通道转发，结束时关闭通道
func (s *GeneratorService) pumpStream(ctx context.Context, stream TextStream, docType model.DocumentType, events chan<- StreamEvent) {
	defer close(events)

	var buf strings.Builder
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.emit(ctx, events, StreamEvent{Type: StreamEventError, Err: apperr.Wrap(err, apperr.CodeGenerationFailed, "流式生成失败")})
			return
		}
		if chunk == "" {
			continue
		}
		buf.WriteString(chunk)
		if !s.emit(ctx, events, StreamEvent{Type: StreamEventChunk, Chunk: chunk}) {
			return
		}
	}

	content, err := s.parseStructured(buf.String(), docType)
	if err != nil {
		s.emit(ctx, events, StreamEvent{Type: StreamEventError, Err: err})
		return
	}
	s.emit(ctx, events, StreamEvent{Type: StreamEventComplete, Content: content})
}

// emit 发送事件，调用方取消时返回 false
func (s *GeneratorService) emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
