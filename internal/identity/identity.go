// Package identity 在 context 中传递调用者身份
package identity

import (
	"context"
	"strings"
)

// SystemEmail 系统内置身份，在没有登录调用者且允许系统归属时使用
const SystemEmail = "system@actionlink.internal"

type contextKey struct{}

// WithEmail 将已认证调用者的邮箱写入 context
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextKey{}, strings.TrimSpace(email))
}

// EmailFromContext 读取已认证调用者的邮箱
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(contextKey{}).(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}
