package testutil

import (
	"fmt"
	"regexp"
	"testing"

	"kafe-backend/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]+`)

// OpenDB teste özel, migrate edilmiş bellek içi sqlite döner. Tek bağlantı
// var, açık bir transaction dışından sorgu atılmamalı.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", unsafeName.ReplaceAllString(t.Name(), "_"))
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}
