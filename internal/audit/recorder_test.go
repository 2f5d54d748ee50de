package audit

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestRecordPersistsEntry(t *testing.T) {
	db := newTestDB(t)
	rec, err := NewRecorder(db, nil)
	require.NoError(t, err)

	userID := uuid.New()
	rec.Record(context.Background(), Entry{
		UserID:    &userID,
		Action:    "CREATE",
		TableName: "clients",
		RecordID:  "42",
		NewValues: map[string]any{"name": "OOO Spetsstroy"},
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	})

	var stored models.AuditLog
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, "CREATE", stored.Action)
	require.Equal(t, "clients", stored.TableName)
	require.NotNil(t, stored.RecordID)
	require.Equal(t, "42", *stored.RecordID)
	require.Nil(t, stored.OldValues)
	require.NotNil(t, stored.NewValues)
	require.True(t, strings.Contains(*stored.NewValues, "Spetsstroy"))
	require.NotNil(t, stored.UserID)
	require.Equal(t, userID, *stored.UserID)
}

func TestRecordSwallowsUnserializableValues(t *testing.T) {
	db := newTestDB(t)
	rec, err := NewRecorder(db, nil)
	require.NoError(t, err)

	rec.Record(context.Background(), Entry{
		Action:    "UPDATE",
		TableName: "projects",
		NewValues: make(chan int),
	})

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRequestMetaPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/clients", nil)
	req.RemoteAddr = "192.168.1.5:51234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	req.Header.Set("User-Agent", "crm-frontend/1.0")

	ip, ua := RequestMeta(req)
	require.Equal(t, "203.0.113.7", ip)
	require.Equal(t, "crm-frontend/1.0", ua)
}

func TestRequestMetaFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/clients", nil)
	req.RemoteAddr = "192.168.1.5:51234"

	ip, _ := RequestMeta(req)
	require.Equal(t, "192.168.1.5", ip)
}
