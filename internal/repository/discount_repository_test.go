package repository

import (
	"testing"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func newTestRule(name string, order int, productIDs ...string) models.MembershipDiscountRule {
	return models.MembershipDiscountRule{
		ID:            uuid.NewString(),
		Name:          name,
		OrderIndex:    order,
		DiscountType:  constants.DiscountTypePercentage,
		DiscountValue: models.NewAmount(decimal.NewFromInt(10)),
		Scope:         datatypes.NewJSONType(models.RuleScope{ProductIDs: productIDs}),
		Period:        "month",
		Active:        true,
	}
}

func TestDiscountRepositoryCreateAndReplaceRules(t *testing.T) {
	db := setupRepositoryTestDB(t, "discount_repo_rules")
	repo := NewDiscountRepository(db)

	definition := &models.MembershipDiscount{
		ID:         uuid.NewString(),
		Name:       "Gold",
		ProductRef: "membership-gold",
		Active:     true,
		Rules: []models.MembershipDiscountRule{
			newTestRule("second", 2, "p2"),
			newTestRule("first", 1, "p1"),
		},
	}
	if err := repo.Create(definition); err != nil {
		t.Fatalf("create definition failed: %v", err)
	}

	loaded, err := repo.GetByID(definition.ID)
	if err != nil {
		t.Fatalf("get definition failed: %v", err)
	}
	if loaded == nil || len(loaded.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %+v", loaded)
	}
	if loaded.Rules[0].Name != "first" || loaded.Rules[1].Name != "second" {
		t.Fatalf("rules should be ordered by order_index: %s, %s", loaded.Rules[0].Name, loaded.Rules[1].Name)
	}
	if got := loaded.Rules[0].Scope.Data().ProductIDs; len(got) != 1 || got[0] != "p1" {
		t.Fatalf("scope should round trip, got %+v", got)
	}

	if err := repo.ReplaceRules(definition.ID, []models.MembershipDiscountRule{newTestRule("only", 0, "p9")}); err != nil {
		t.Fatalf("replace rules failed: %v", err)
	}
	definition.Active = false
	definition.Name = "Gold v2"
	if err := repo.UpdateHeader(definition); err != nil {
		t.Fatalf("update header failed: %v", err)
	}

	reloaded, err := repo.GetByIDForUpdate(definition.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Active || reloaded.Name != "Gold v2" {
		t.Fatalf("header not updated: %+v", reloaded)
	}
	if len(reloaded.Rules) != 1 || reloaded.Rules[0].Name != "only" {
		t.Fatalf("rules should be replaced, got %+v", reloaded.Rules)
	}

	var ruleCount int64
	db.Model(&models.MembershipDiscountRule{}).Count(&ruleCount)
	if ruleCount != 1 {
		t.Fatalf("old rules should be deleted, count=%d", ruleCount)
	}
}

func TestDiscountRepositoryCreateKeepsInactiveFlags(t *testing.T) {
	db := setupRepositoryTestDB(t, "discount_repo_inactive")
	repo := NewDiscountRepository(db)

	paused := newTestRule("paused", 1, "p1")
	paused.Active = false
	definition := &models.MembershipDiscount{
		ID:         uuid.NewString(),
		Name:       "Draft",
		ProductRef: "membership-draft",
		Active:     false,
		Rules: []models.MembershipDiscountRule{
			paused,
			newTestRule("live", 2, "p2"),
		},
	}
	if err := repo.Create(definition); err != nil {
		t.Fatalf("create definition failed: %v", err)
	}

	loaded, err := repo.GetByID(definition.ID)
	if err != nil {
		t.Fatalf("get definition failed: %v", err)
	}
	if loaded == nil || loaded.Active {
		t.Fatalf("inactive definition should stay inactive, got %+v", loaded)
	}
	if len(loaded.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(loaded.Rules))
	}
	if loaded.Rules[0].Active {
		t.Fatalf("inactive rule should stay inactive")
	}
	if !loaded.Rules[1].Active {
		t.Fatalf("active rule should stay active")
	}

	if err := repo.ReplaceRules(definition.ID, []models.MembershipDiscountRule{paused}); err != nil {
		t.Fatalf("replace rules failed: %v", err)
	}
	var activeCount int64
	db.Model(&models.MembershipDiscountRule{}).Where("discount_id = ? AND active = ?", definition.ID, true).Count(&activeCount)
	if activeCount != 0 {
		t.Fatalf("replaced inactive rule should not be stored as active, count=%d", activeCount)
	}
}

func TestDiscountRepositoryListAndTables(t *testing.T) {
	db := setupRepositoryTestDB(t, "discount_repo_list")
	repo := NewDiscountRepository(db)
	if !repo.TablesReady() {
		t.Fatalf("tables should be ready after migration")
	}

	for _, def := range []models.MembershipDiscount{
		{ID: uuid.NewString(), Name: "Gold", ProductRef: "gold", Active: true},
		{ID: uuid.NewString(), Name: "Silver", ProductRef: "silver", Active: true},
	} {
		def := def
		if err := repo.Create(&def); err != nil {
			t.Fatalf("create definition failed: %v", err)
		}
	}

	all, err := repo.List(DiscountListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 definitions got %d", len(all))
	}
	matched, err := repo.List(DiscountListFilter{Search: "gol"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matched) != 1 || matched[0].Name != "Gold" {
		t.Fatalf("search mismatch: %+v", matched)
	}

	if err := db.Migrator().DropTable(&models.MembershipDiscountRule{}); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}
	if repo.TablesReady() {
		t.Fatalf("tables should not be ready after drop")
	}
	_, err = repo.List(DiscountListFilter{})
	if !IsUndefinedTable(err) {
		t.Fatalf("expected undefined table error, got %v", err)
	}
}

func TestDiscountUsageRepositoryAppend(t *testing.T) {
	db := setupRepositoryTestDB(t, "discount_usage_repo")
	repo := NewDiscountUsageRepository(db)

	event := &models.MembershipDiscountUsageEvent{
		ID:             uuid.NewString(),
		SubjectID:      "s1",
		RuleID:         "r1",
		PeriodKey:      "2024-06",
		Delta:          1,
		Reason:         constants.UsageReasonApply,
		IdempotencyKey: "usage-1",
	}
	id, idempotent, err := repo.Append(event)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if idempotent || id != event.ID {
		t.Fatalf("first append should insert, id=%s idempotent=%v", id, idempotent)
	}

	replay := *event
	replay.ID = uuid.NewString()
	replay.Delta = -1
	id2, idempotent, err := repo.Append(&replay)
	if err != nil {
		t.Fatalf("replay append failed: %v", err)
	}
	if !idempotent || id2 != event.ID {
		t.Fatalf("replay should return existing id, id=%s idempotent=%v", id2, idempotent)
	}

	second := &models.MembershipDiscountUsageEvent{
		ID:             uuid.NewString(),
		SubjectID:      "s1",
		RuleID:         "r1",
		PeriodKey:      "2024-06",
		Delta:          1,
		IdempotencyKey: "usage-2",
	}
	if _, _, err := repo.Append(second); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	total, err := repo.SumDelta("s1", "r1")
	if err != nil {
		t.Fatalf("sum delta failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("sum delta want 2 got %d", total)
	}

	events, count, err := repo.ListBySubject("s1", 1, 10)
	if err != nil || count != 2 || len(events) != 2 {
		t.Fatalf("list by subject mismatch: count=%d len=%d err=%v", count, len(events), err)
	}
}

func TestSubjectProfileRepositoryCounters(t *testing.T) {
	db := setupRepositoryTestDB(t, "subject_profile_repo")
	repo := NewSubjectProfileRepository(db)

	empty, err := repo.GetCounters("s1", false)
	if err != nil {
		t.Fatalf("get missing profile failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("missing profile should yield empty snapshot")
	}

	if err := db.Create(&models.SubjectProfile{
		SubjectID: "s1",
		Metadata:  datatypes.JSONMap{"tier": "gold"},
	}).Error; err != nil {
		t.Fatalf("seed profile failed: %v", err)
	}

	snapshot := models.QuotaCounterSnapshot{
		models.QuotaCounterKey("r1"): {PeriodKey: "2024-06", CountUsed: 3, LifetimeUsed: 7},
	}
	if err := repo.SaveCounters("s1", snapshot); err != nil {
		t.Fatalf("save counters failed: %v", err)
	}

	loaded, err := repo.GetCounters("s1", true)
	if err != nil {
		t.Fatalf("reload counters failed: %v", err)
	}
	counter, ok := loaded.Get("r1")
	if !ok || counter.CountUsed != 3 || counter.LifetimeUsed != 7 || counter.PeriodKey != "2024-06" {
		t.Fatalf("unexpected counter: %+v", counter)
	}

	var profile models.SubjectProfile
	if err := db.Where("subject_id = ?", "s1").First(&profile).Error; err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.Metadata["tier"] != "gold" {
		t.Fatalf("other metadata keys should be preserved: %+v", profile.Metadata)
	}
	if _, ok := profile.Metadata[constants.ProfileMetadataDiscountCounters]; !ok {
		t.Fatalf("counters key missing: %+v", profile.Metadata)
	}
}

func TestSubjectProfileRepositoryLockCreatesRow(t *testing.T) {
	db := setupRepositoryTestDB(t, "subject_profile_repo_lock")
	repo := NewSubjectProfileRepository(db)

	snapshot, err := repo.GetCounters("fresh", true)
	if err != nil {
		t.Fatalf("locked read failed: %v", err)
	}
	if len(snapshot) != 0 {
		t.Fatalf("fresh subject should have no counters")
	}
	var count int64
	db.Model(&models.SubjectProfile{}).Where("subject_id = ?", "fresh").Count(&count)
	if count != 1 {
		t.Fatalf("locked read should create placeholder row, count=%d", count)
	}
}
