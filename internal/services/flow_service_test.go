package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vinobytes/somm-backend/internal/domain"
	"github.com/vinobytes/somm-backend/internal/repo"
	"github.com/vinobytes/somm-backend/internal/tasting"
)

func startTestFlow(t *testing.T, svc *FlowService) (flowID, scanID string) {
	t.Helper()
	ctx := context.Background()
	scan, err := repo.CreateScan(ctx, svc.DB, "u1", extractedWine())
	if err != nil {
		t.Fatalf("seed scan: %v", err)
	}
	id, _, err := svc.Start(ctx, "u1", scan.ID, *redTestProfile(), tasting.Options{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return id, scan.ID
}

func TestFlowService_Start(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)

	id, _ := startTestFlow(t, svc)
	if id == "" {
		t.Fatal("missing flow id")
	}
	if svc.Active() != 1 {
		t.Fatalf("active = %d", svc.Active())
	}

	f, err := svc.Get(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if f.Step() != tasting.StepAcidity {
		t.Fatalf("initial step = %v", f.Step())
	}
}

func TestFlowService_Start_ScanNotFound(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)

	_, _, err := svc.Start(context.Background(), "u1", "missing", *redTestProfile(), tasting.Options{})
	if !errors.Is(err, ErrScanNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestFlowService_Get_OwnershipEnforced(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)
	id, _ := startTestFlow(t, svc)

	if _, err := svc.Get(context.Background(), "u2", id); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("foreign user err = %v", err)
	}
	if _, err := svc.Get(context.Background(), "u1", "missing"); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("missing flow err = %v", err)
	}
}

func TestFlowService_SetField(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)
	id, _ := startTestFlow(t, svc)
	ctx := context.Background()

	f, err := svc.SetField(ctx, "u1", id, FieldAcidity, "Medium+")
	if err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if f.Input().Acidity != domain.IntensityMediumPlus {
		t.Fatalf("acidity = %q", f.Input().Acidity)
	}

	f, err = svc.SetField(ctx, "u1", id, FieldNotes, "cherry core")
	if err != nil {
		t.Fatalf("SetField notes: %v", err)
	}
	if f.Input().Notes != "cherry core" {
		t.Fatalf("notes = %q", f.Input().Notes)
	}

	if _, err := svc.SetField(ctx, "u1", id, "color", "ruby"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("unknown field err = %v", err)
	}
}

func TestFlowService_Toggle(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)
	id, _ := startTestFlow(t, svc)
	ctx := context.Background()

	f, err := svc.Toggle(ctx, "u1", id, KindAroma, "Violet")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if got := f.Input().Aromas; len(got) != 1 || got[0] != "Violet" {
		t.Fatalf("aromas = %v", got)
	}

	if _, err := svc.Toggle(ctx, "u1", id, "colors", "ruby"); !errors.Is(err, ErrUnknownSelectionKind) {
		t.Fatalf("unknown kind err = %v", err)
	}
	if _, err := svc.Toggle(ctx, "u1", id, KindAroma, "Petrol"); !errors.Is(err, tasting.ErrNotInPool) {
		t.Fatalf("out of pool err = %v", err)
	}

	// Fill to the cap and confirm the fifth pick bounces.
	for _, a := range []string{"Blackberry", "Tobacco", "Earth"} {
		if _, err := svc.Toggle(ctx, "u1", id, KindAroma, a); err != nil {
			t.Fatalf("toggle %q: %v", a, err)
		}
	}
	if _, err := svc.Toggle(ctx, "u1", id, KindAroma, "Cedar"); !errors.Is(err, tasting.ErrSelectionFull) {
		t.Fatalf("fifth pick err = %v", err)
	}
}

func TestFlowService_Advance_TerminalPersists(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)
	id, scanID := startTestFlow(t, svc)
	ctx := context.Background()

	fields := map[string]string{
		FieldAcidity:   "medium",
		FieldAlcohol:   "medium",
		FieldTannin:    "high",
		FieldBody:      "full",
		FieldSweetness: "dry",
	}
	for field, value := range fields {
		if _, err := svc.SetField(ctx, "u1", id, field, value); err != nil {
			t.Fatalf("set %s: %v", field, err)
		}
	}
	if _, err := svc.Toggle(ctx, "u1", id, KindFlavor, "Coffee"); err != nil {
		t.Fatalf("toggle flavor: %v", err)
	}

	// Walk to the summary step.
	for {
		f, rec, err := svc.Advance(ctx, "u1", id)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if rec != nil {
			t.Fatal("record before the summary step")
		}
		if f.Step() == tasting.StepSummary {
			break
		}
	}

	// The terminal advance persists and evicts.
	f, rec, err := svc.Advance(ctx, "u1", id)
	if err != nil {
		t.Fatalf("terminal advance: %v", err)
	}
	if f != nil {
		t.Fatal("terminal advance must not return a live flow")
	}
	if rec == nil || rec.ScanID != scanID || rec.UserID != "u1" {
		t.Fatalf("record: %+v", rec)
	}
	if svc.Active() != 0 {
		t.Fatalf("active after finalize = %d", svc.Active())
	}
	if _, err := svc.Get(ctx, "u1", id); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("finalized flow still resolvable: %v", err)
	}

	// And the row is really there.
	stored, err := repo.GetTasting(ctx, db, rec.ID, "u1")
	if err != nil {
		t.Fatalf("stored tasting: %v", err)
	}
	if stored.Input().Flavors[0] != "Coffee" {
		t.Fatalf("stored input: %+v", stored.Input())
	}
}

func TestFlowService_Advance_TerminalStoreFailureKeepsFlow(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)
	id, scanID := startTestFlow(t, svc)
	ctx := context.Background()

	fields := map[string]string{
		FieldAcidity:   "medium",
		FieldAlcohol:   "medium",
		FieldTannin:    "high",
		FieldBody:      "full",
		FieldSweetness: "dry",
	}
	for field, value := range fields {
		if _, err := svc.SetField(ctx, "u1", id, field, value); err != nil {
			t.Fatalf("set %s: %v", field, err)
		}
	}
	for {
		f, _, err := svc.Advance(ctx, "u1", id)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if f.Step() == tasting.StepSummary {
			break
		}
	}

	// Break the store underneath the terminal advance.
	if err := db.Migrator().DropTable(&domain.Tasting{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, _, err := svc.Advance(ctx, "u1", id); err == nil {
		t.Fatal("terminal advance must surface the store failure")
	}

	// The flow survives the failed insert so nothing the user entered is lost.
	f, err := svc.Get(ctx, "u1", id)
	if err != nil {
		t.Fatalf("flow gone after failed store: %v", err)
	}
	if f.Step() != tasting.StepSummary {
		t.Fatalf("step after failed store = %v", f.Step())
	}

	// Once the store recovers the retry persists and evicts as usual.
	if err := db.AutoMigrate(&domain.Tasting{}); err != nil {
		t.Fatalf("restore table: %v", err)
	}
	live, rec, err := svc.Advance(ctx, "u1", id)
	if err != nil {
		t.Fatalf("retried terminal advance: %v", err)
	}
	if live != nil || rec == nil || rec.ScanID != scanID {
		t.Fatalf("retry result: flow=%v rec=%+v", live, rec)
	}
	if _, err := svc.Get(ctx, "u1", id); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("flow still resolvable after successful store: %v", err)
	}
}

func TestFlowService_Advance_GatesUnansweredStep(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)
	id, _ := startTestFlow(t, svc)

	_, _, err := svc.Advance(context.Background(), "u1", id)
	if !errors.Is(err, tasting.ErrStepIncomplete) {
		t.Fatalf("err = %v", err)
	}
}

func TestFlowService_TTLPrune(t *testing.T) {
	db := newSvcDB(t)
	svc := NewFlowService(db, time.Hour)
	id, _ := startTestFlow(t, svc)

	current := time.Now()
	svc.now = func() time.Time { return current }
	if svc.Active() != 1 {
		t.Fatalf("active = %d", svc.Active())
	}

	// Past the TTL the flow is gone without any explicit cleanup call.
	current = current.Add(2 * time.Hour)
	if _, err := svc.Get(context.Background(), "u1", id); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("expired flow err = %v", err)
	}
	if svc.Active() != 0 {
		t.Fatalf("active after expiry = %d", svc.Active())
	}
}

func TestNewFlowService_DefaultTTL(t *testing.T) {
	svc := NewFlowService(nil, 0)
	if svc.TTL != 2*time.Hour {
		t.Fatalf("default TTL = %v", svc.TTL)
	}
}
