package gormstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/dkeye/FamilyShare/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, retention int) storage.Store {
		s, err := New(setupTestDB(t), retention)
		require.NoError(t, err)
		return s
	})
}

func TestMemberUsernameFitsUserID(t *testing.T) {
	sch, err := schema.Parse(&memberRecord{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := sch.LookUpField("Username")
	require.NotNil(t, field)
	// a nameless member stores its id as username
	assert.GreaterOrEqual(t, field.Size, domain.MaxUserIDLen)

	s, err := New(setupTestDB(t), 0)
	require.NoError(t, err)
	ident, err := domain.NewIdentity(strings.Repeat("u", domain.MaxUserIDLen), "f1")
	require.NoError(t, err)
	m, err := domain.NewMember(ident, "")
	require.NoError(t, err)
	require.NoError(t, s.SaveMember(context.Background(), m))
	got, err := s.Member(context.Background(), ident.UserID)
	require.NoError(t, err)
	assert.Equal(t, string(ident.UserID), got.Username)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "", 0)
	require.Error(t, err)
}
