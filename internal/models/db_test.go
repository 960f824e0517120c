package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestInitDBPingAndClose(t *testing.T) {
	dsn := fmt.Sprintf("file:models_db_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	if err := InitDB("sqlite", dsn, DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}); err != nil {
		t.Fatalf("init db failed: %v", err)
	}
	if err := AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if !DB.Migrator().HasTable(&CartSnapshot{}) {
		t.Fatalf("cart_snapshots table should exist")
	}
	if err := Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := Ping(context.Background()); !errors.Is(err, ErrDBNotInitialized) {
		t.Fatalf("ping after close should report not initialized, got %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	if err := InitDB("mysql", "", DBPoolConfig{}); err == nil {
		t.Fatalf("unsupported driver should fail")
	}
}
