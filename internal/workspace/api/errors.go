package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrSessionExpired 会话已过期（401）。收到后本地token已被清除，
// 调用方应提示重新登录，不应重试。
var ErrSessionExpired = errors.New("session expired, please log in again")

// APIError 后端返回的非2xx错误。
// DRF 风格响应体：{"detail": "..."} 或按字段的 {"field": ["msg", ...]}。
type APIError struct {
	StatusCode int
	Path       string
	Detail     string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d on %s: %s", e.StatusCode, e.Path, e.Detail)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, msgs := range e.Fields {
			parts = append(parts, field+": "+strings.Join(msgs, "; "))
		}
		return fmt.Sprintf("api error %d on %s: %s", e.StatusCode, e.Path, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("api error %d on %s", e.StatusCode, e.Path)
}

// newAPIError 把错误响应体解析为 APIError。
// 依次尝试 {"detail": ...}、{"error": ...}、字段错误map，都失败则截断原文。
func newAPIError(status int, path string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Path: path}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Detail = truncate(strings.TrimSpace(string(body)), 200)
		return apiErr
	}

	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			apiErr.Detail = s
			return apiErr
		}
	}

	fields := make(map[string][]string)
	for key, raw := range envelope {
		var msgs []string
		if json.Unmarshal(raw, &msgs) == nil {
			fields[key] = msgs
			continue
		}
		var single string
		if json.Unmarshal(raw, &single) == nil {
			fields[key] = []string{single}
		}
	}
	if len(fields) > 0 {
		apiErr.Fields = fields
	}
	return apiErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// AsAPIError 提取错误链中的 APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound 资源不存在（404）。对直接BOQ清单等接口，404按空列表处理。
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsForbidden 无权限（403）。调用方应降级为只读。
func IsForbidden(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusForbidden
}

// IsServerError 服务端错误（5xx）
func IsServerError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode >= 500
}
