// Package dbtest 測試用的 in-memory sqlite store
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSqlite 每個測試一個獨立的 in-memory db
// 單一連線, tx 內若誤用外層連線會直接卡住
func OpenSqlite(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return conn
}

func NewStore(t testing.TB) *db.Store {
	t.Helper()
	store := db.NewStore(OpenSqlite(t))
	require.NoError(t, store.InitMigrate(context.Background()))
	return store
}
