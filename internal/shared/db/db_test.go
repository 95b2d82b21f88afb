package db

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type row struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver:   DriverSQLite,
		DSN:      "file:" + t.Name() + "?mode=memory&cache=shared",
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Base.AutoMigrate(&row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestTransactionRollsBack(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row{Name: "a"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	var n int64
	s.Base.Model(&row{}).Count(&n)
	if n != 0 {
		t.Fatalf("rows after rollback = %d", n)
	}
}

func TestTransactionCommits(t *testing.T) {
	s := openMemory(t)
	err := s.Transaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&row{Name: "a"}).Error
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	var n int64
	s.Base.Model(&row{}).Count(&n)
	if n != 1 {
		t.Fatalf("rows = %d", n)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReplicasNeedPostgres(t *testing.T) {
	_, err := Open(context.Background(), Config{
		Driver:      DriverSQLite,
		DSN:         "file:" + t.Name() + "?mode=memory&cache=shared",
		ReplicaDSNs: []string{"host=replica"},
		LogLevel:    logger.Silent,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}
