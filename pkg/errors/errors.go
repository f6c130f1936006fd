// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess       ErrorCode = "0"
	CodeUnknown       ErrorCode = "1000"
	CodeInvalidParam  ErrorCode = "1001"
	CodeUnauthorized  ErrorCode = "1002"
	CodeForbidden     ErrorCode = "1003"
	CodeNotFound      ErrorCode = "1004"
	CodeConflict      ErrorCode = "1005"
	CodeTooMany       ErrorCode = "1006"
	CodeInternalError ErrorCode = "1007"

	// 资源错误 (2xxx)
	CodeProjectNotFound  ErrorCode = "2001"
	CodeDocumentNotFound ErrorCode = "2002"
	CodeUserNotFound     ErrorCode = "2003"
	CodeNoContent        ErrorCode = "2004"

	// 生成/润色错误 (3xxx)
	CodeGenerationFailed ErrorCode = "3001"
	CodeRefineFailed     ErrorCode = "3002"
	CodeParseFailed      ErrorCode = "3003"
	CodeKindMismatch     ErrorCode = "3004"

	// 导出错误 (4xxx)
	CodeSynthesisFailed ErrorCode = "4001"
	CodeTemplateShape   ErrorCode = "4002"
	CodeExportFailed    ErrorCode = "4003"

	// 外部服务错误 (5xxx)
	CodeLLMCallFailed ErrorCode = "5001"
	CodeSlidesAPI     ErrorCode = "5002"
	CodeStorageError  ErrorCode = "5003"
	CodeDatabaseError ErrorCode = "5004"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus 错误码对应的 HTTP 状态码
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeNoContent, CodeKindMismatch:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeProjectNotFound, CodeDocumentNotFound, CodeUserNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooMany:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf 创建带格式化消息的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf 取出错误码；非 AppError 返回 CodeUnknown
func CodeOf(err error) ErrorCode {
	var e *AppError
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is 判断错误（或其包装链上的错误）是否携带指定错误码
func Is(err error, code ErrorCode) bool {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if app, ok := e.(*AppError); ok && app.Code == code {
			return true
		}
	}
	return false
}

// AsApp 将任意错误转换为 AppError；已是 AppError 则原样返回
func AsApp(err error, fallback ErrorCode) *AppError {
	var e *AppError
	if stderrors.As(err, &e) {
		return e
	}
	return &AppError{Code: fallback, Message: err.Error(), Err: err}
}
