package tushare

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an API failure for retry handling. Transient
// failures may succeed on a later attempt; everything else will fail the
// same way every time and must not be retried.
type ErrorKind int

const (
	// KindTransient covers network errors, server errors and rate
	// rejections
	KindTransient ErrorKind = iota
	// KindPermission means the account lacks access to the endpoint
	KindPermission
	// KindInvalidParam means the parameter combination was rejected
	KindInvalidParam
	// KindUnknownAPI means the endpoint name does not exist
	KindUnknownAPI
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermission:
		return "permission_denied"
	case KindInvalidParam:
		return "invalid_param"
	case KindUnknownAPI:
		return "unknown_api"
	default:
		return "transient"
	}
}

// APIError is a failure reported by the Tushare API itself, as opposed
// to a transport-level failure.
type APIError struct {
	Code int
	Msg  string
	Kind ErrorKind
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tushare api error: code=%d kind=%s msg=%s", e.Code, e.Kind, e.Msg)
}

// classifyAPIError maps a non-zero response code to an ErrorKind. The
// API reports most conditions through the message text rather than
// stable codes, so classification matches on both.
func classifyAPIError(code int, msg string) *APIError {
	kind := KindTransient
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "权限") || strings.Contains(lower, "permission") ||
		strings.Contains(msg, "积分"):
		kind = KindPermission
	case strings.Contains(msg, "参数") || strings.Contains(lower, "param"):
		kind = KindInvalidParam
	case strings.Contains(msg, "接口不存在") || strings.Contains(lower, "api name error") ||
		strings.Contains(lower, "unknown api"):
		kind = KindUnknownAPI
	case strings.Contains(msg, "抱歉，您每分钟") || strings.Contains(lower, "too many requests"):
		// per-minute quota exceeded, retryable after backoff
		kind = KindTransient
	}

	return &APIError{Code: code, Msg: msg, Kind: kind}
}

// IsPermanent reports whether err can never succeed on retry. Transport
// errors and server-side failures are considered transient.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind != KindTransient
	}
	return false
}
