package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/trustreach/verifyd/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.VerificationEvent{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestLogAndList(t *testing.T) {
	svc, err := NewService(openTestDB(t))
	require.NoError(t, err)

	require.NoError(t, svc.Log(context.Background(), Entry{
		Event:     EventCodeIssued,
		Email:     "user@example.com",
		Phone:     "+15550100",
		Result:    "success",
		IPAddress: "198.51.100.7",
		Metadata:  map[string]any{"delivery": "smtp"},
	}))
	require.NoError(t, svc.Log(context.Background(), Entry{
		Event:  EventCodeValidated,
		Email:  "user@example.com",
		Result: "mismatch",
	}))

	events, total, err := svc.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, events, 2)

	issued, total, err := svc.List(context.Background(), ListOptions{
		Filters: Filters{Event: EventCodeIssued},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "success", issued[0].Result)
	require.JSONEq(t, `{"delivery":"smtp"}`, issued[0].Metadata)
}

func TestLogValidation(t *testing.T) {
	svc, err := NewService(openTestDB(t))
	require.NoError(t, err)

	require.Error(t, svc.Log(context.Background(), Entry{Result: "success"}))
	require.Error(t, svc.Log(context.Background(), Entry{Event: EventCodeIssued}))
}

func TestCleanupOlderThan(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	old := models.VerificationEvent{
		Event:     EventCodeIssued,
		Result:    "success",
		CreatedAt: time.Now().AddDate(0, 0, -40),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, svc.Log(context.Background(), Entry{Event: EventCodeIssued, Result: "success"}))

	removed, err := svc.CleanupOlderThan(context.Background(), 30)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, total, err := svc.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, err = svc.CleanupOlderThan(context.Background(), 0)
	require.Error(t, err)
}

func TestNewServiceRequiresDB(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
