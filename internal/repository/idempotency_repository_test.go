package repository

import (
	"testing"

	"github.com/dujiao-next/ledger-engine/internal/models"

	"github.com/google/uuid"
)

func TestIdempotencyRepositoryClaim(t *testing.T) {
	db := setupRepositoryTestDB(t, "idempotency_repo_claim")
	repo := NewIdempotencyRepository(db)

	first := &models.IdempotencyRecord{ID: uuid.NewString(), IdempotencyKey: "k1", Scope: "gift_card.issue", RequestHash: "h1"}
	claimed, err := repo.Claim(first)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if !claimed {
		t.Fatalf("first claim should win")
	}
	if err := repo.SaveResponse(first.ID, `{"ok":true}`); err != nil {
		t.Fatalf("save response failed: %v", err)
	}

	second := &models.IdempotencyRecord{ID: uuid.NewString(), IdempotencyKey: "k1", Scope: "gift_card.issue", RequestHash: "h1"}
	claimed, err = repo.Claim(second)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if claimed {
		t.Fatalf("second claim should collide")
	}

	stored, err := repo.GetByKey("k1")
	if err != nil {
		t.Fatalf("get by key failed: %v", err)
	}
	if stored == nil || stored.ID != first.ID || stored.ResponseJSON != `{"ok":true}` {
		t.Fatalf("unexpected stored record: %+v", stored)
	}

	var count int64
	db.Model(&models.IdempotencyRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("record count want 1 got %d", count)
	}
}

func TestIdempotencyRepositoryMissingKey(t *testing.T) {
	db := setupRepositoryTestDB(t, "idempotency_repo_missing")
	repo := NewIdempotencyRepository(db)

	record, err := repo.GetByKey("absent")
	if err != nil || record != nil {
		t.Fatalf("absent key should return nil, got %+v err=%v", record, err)
	}
	if _, err := repo.Claim(&models.IdempotencyRecord{ID: uuid.NewString()}); err == nil {
		t.Fatalf("blank key should be rejected")
	}
}
