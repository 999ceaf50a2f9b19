package actionlink

import (
	"errors"
	"fmt"
)

// Kind 错误分类，HTTP 层据此选择状态码
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindDataInconsistency
	KindInvalidOperation
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDataInconsistency:
		return "data_inconsistency"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

var (
	ErrLinkNotFound     = errors.New("action link not found")
	ErrLinkInactive     = errors.New("action link is inactive")
	ErrLinkExpired      = errors.New("action link has expired")
	ErrLinkLimitReached = errors.New("action link usage limit reached")
	ErrInvalidRequest   = errors.New("invalid action link request")

	ErrShareURLMismatch = errors.New("share link url does not match the stored url")
	ErrUnsupportedLink  = errors.New("unsupported entity type and action combination")

	ErrUnauthenticated = errors.New("authentication required")
	ErrUserNotFound    = errors.New("user not found")
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf 返回错误链中第一个业务错误的分类
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsDataInconsistency(err error) bool { return KindOf(err) == KindDataInconsistency }

func IsInvalidOperation(err error) bool { return KindOf(err) == KindInvalidOperation }
