package repository

import (
	"testing"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/models"

	"github.com/google/uuid"
)

func TestEntitlementRepositoryInsertIfAbsent(t *testing.T) {
	db := setupRepositoryTestDB(t, "entitlement_repo_insert")
	repo := NewEntitlementRepository(db)

	state := &models.MembershipEntitlementState{
		ID:           uuid.NewString(),
		MembershipID: "m1",
		RuleID:       "r1",
		SlotKey:      "2024-06-01",
		TicketID:     "t1",
		PeriodKey:    "2024-06",
		Status:       constants.SlotStatusConsumed,
	}
	inserted, err := repo.InsertStateIfAbsent(state)
	if err != nil || !inserted {
		t.Fatalf("first insert should win, inserted=%v err=%v", inserted, err)
	}

	rival := *state
	rival.ID = uuid.NewString()
	rival.TicketID = "t2"
	inserted, err = repo.InsertStateIfAbsent(&rival)
	if err != nil {
		t.Fatalf("rival insert failed: %v", err)
	}
	if inserted {
		t.Fatalf("rival insert should be ignored")
	}

	current, err := repo.GetStateForUpdate("m1", "r1", "2024-06-01")
	if err != nil {
		t.Fatalf("get state failed: %v", err)
	}
	if current == nil || current.TicketID != "t1" {
		t.Fatalf("winner ticket should be kept, got %+v", current)
	}

	current.Status = constants.SlotStatusReleased
	current.UpdatedAt = time.Now().UTC()
	if err := repo.UpdateState(current); err != nil {
		t.Fatalf("update state failed: %v", err)
	}
	reloaded, _ := repo.GetStateForUpdate("m1", "r1", "2024-06-01")
	if reloaded.Status != constants.SlotStatusReleased {
		t.Fatalf("status want RELEASED got %s", reloaded.Status)
	}

	absent, err := repo.GetStateForUpdate("m1", "r1", "other")
	if err != nil || absent != nil {
		t.Fatalf("absent slot should return nil, got %+v err=%v", absent, err)
	}
}

func TestEntitlementRepositoryListFilters(t *testing.T) {
	db := setupRepositoryTestDB(t, "entitlement_repo_list")
	repo := NewEntitlementRepository(db)
	base := time.Now().UTC()

	for idx, membership := range []string{"m1", "m1", "m2"} {
		event := &models.MembershipEntitlementEvent{
			ID:             uuid.NewString(),
			MembershipID:   membership,
			RuleID:         "r1",
			SlotKey:        "slot",
			TicketID:       "t",
			PeriodKey:      "2024-06",
			Kind:           constants.SlotEventConsume,
			IdempotencyKey: uuid.NewString(),
			CreatedAt:      base.Add(time.Duration(idx) * time.Minute),
		}
		if err := repo.CreateEvent(event); err != nil {
			t.Fatalf("create event failed: %v", err)
		}
	}

	events, total, err := repo.ListEvents(EntitlementListFilter{MembershipID: "m1", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if total != 2 || len(events) != 2 {
		t.Fatalf("membership filter want 2 got total=%d len=%d", total, len(events))
	}
	if !events[0].CreatedAt.After(events[1].CreatedAt) {
		t.Fatalf("events should be newest first")
	}

	states, total, err := repo.ListStates(EntitlementListFilter{MembershipID: "m9"})
	if err != nil {
		t.Fatalf("list states failed: %v", err)
	}
	if total != 0 || len(states) != 0 {
		t.Fatalf("expected no states, got %d", total)
	}
}
