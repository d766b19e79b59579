package models

import (
	"fmt"
	"testing"
	"time"
)

func TestOpenDBZeroPoolKeepsSharedMemoryDatabase(t *testing.T) {
	dsn := fmt.Sprintf("file:models_zero_pool_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := OpenDB("sqlite", dsn, DBOptions{LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open db failed: %v", err)
	}
	if err := db.AutoMigrate(&GiftCard{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if !db.Migrator().HasTable(&GiftCard{}) {
		t.Fatalf("table should survive between statements with zero pool config")
	}
	if missing := MissingTables(db); len(missing) == 0 {
		t.Fatalf("only gift_card was migrated, other tables should be reported missing")
	}
}

func TestOpenDBAppliesMaxOpenConns(t *testing.T) {
	dsn := fmt.Sprintf("file:models_pool_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := OpenDB("sqlite", dsn, DBOptions{
		LogLevel: "silent",
		Pool:     DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1},
	})
	if err != nil {
		t.Fatalf("open db failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("max open conns want 1 got %d", got)
	}
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDB("oracle", "dsn", DBOptions{}); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
