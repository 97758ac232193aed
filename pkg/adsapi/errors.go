package adsapi

import (
	"errors"
	"fmt"
)

// APIError 广告平台调用的分类错误
// Retryable=true  表示瞬时故障（网络/限流/5xx），下轮调度重试即可
// Retryable=false 表示结构性失败（授权吊销/账户无权限），需人工介入
type APIError struct {
	StatusCode int    // 0 表示网络层错误
	Code       string // 平台侧错误码，如 invalid_grant
	Message    string
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("ads api network error: %s", e.Message)
	}
	return fmt.Sprintf("ads api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// AsAPIError 从 error 链中取出 *APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// classify 根据 HTTP 状态码与平台错误码判断是否可重试
// 429 / 5xx / 408 为瞬时错误；400 invalid_grant、401、403 为结构性错误
func classify(statusCode int, code string) bool {
	switch {
	case statusCode == 429, statusCode == 408, statusCode >= 500:
		return true
	default:
		// 400/401/403（含 invalid_grant）以及其他 4xx 重试无意义
		return false
	}
}

// netError 网络层错误（连接超时/DNS 失败等），一律可重试
func netError(err error) *APIError {
	return &APIError{StatusCode: 0, Message: err.Error(), Retryable: true}
}
