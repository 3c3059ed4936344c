// Package errors 提供统一的错误定义
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 文档构建/同步错误 (2xxx)
	CodeNotImplemented  ErrorCode = "2001"
	CodeInvalidUpdate   ErrorCode = "2002"
	CodeInvalidArgument ErrorCode = "2003"
	CodeInvalidState    ErrorCode = "2004"

	// 外部服务错误 (5xxx)
	CodeDatabaseError    ErrorCode = "5001"
	CodeCacheError       ErrorCode = "5002"
	CodeTransportFailure ErrorCode = "5003"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
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

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeInvalidUpdate, CodeInvalidArgument, CodeInvalidState:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeServiceUnavailable, CodeTransportFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	// ErrNotImplemented 实体类型未提供文档构建契约
	ErrNotImplemented = New(CodeNotImplemented, "entity does not implement DocumentSource")
	// ErrInvalidUpdate 更新字段在映射中但无法序列化
	ErrInvalidUpdate = New(CodeInvalidUpdate, "update field is mapped but not serializable")
	// ErrInvalidArgument 不支持的批量操作类型
	ErrInvalidArgument = New(CodeInvalidArgument, "invalid argument")
	// ErrInvalidState 实体尚未持久化（无 ID）
	ErrInvalidState = New(CodeInvalidState, "entity has no identifier")
)

// TransportError 搜索引擎传输层错误
// 携带引擎返回的状态码与原因，供上层编排决定重试策略
type TransportError struct {
	StatusCode int
	Reason     string
	Err        error
}

// Error 实现 error 接口
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search transport failure (status=%d, reason=%s): %v", e.StatusCode, e.Reason, e.Err)
	}
	return fmt.Sprintf("search transport failure (status=%d, reason=%s)", e.StatusCode, e.Reason)
}

// Unwrap 返回底层错误
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError 创建传输层错误
func NewTransportError(statusCode int, reason string, err error) *TransportError {
	return &TransportError{StatusCode: statusCode, Reason: reason, Err: err}
}

// IsTransportError 检查是否为传输层错误
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsTransportError 将错误转换为传输层错误，非传输层错误返回 nil
func AsTransportError(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return nil
}

// IsCode 检查错误是否携带指定错误码
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
