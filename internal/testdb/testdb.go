// Package testdb 为测试提供隔离的内存 sqlite 数据库
package testdb

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"actionlink-platform/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// New 创建一个已迁移的内存数据库，测试结束时自动关闭
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "无法连接到内存数据库")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.AllModels()...), "数据库迁移失败")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedUser 插入一个启用的用户
func SeedUser(t testing.TB, db *gorm.DB, email string) *model.User {
	t.Helper()
	username := strings.SplitN(email, "@", 2)[0]
	user := &model.User{Username: username, Email: email, Role: "user", IsActive: true}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}
