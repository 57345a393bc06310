package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vinobytes/somm-backend/internal/domain"
)

func newScanDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Scan{}, &domain.Tasting{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testWine(producer, vintage string) *domain.WineData {
	w := &domain.WineData{Category: domain.CategoryRed}
	if producer != "" {
		w.Producer = &producer
	}
	if vintage != "" {
		w.Vintage = &vintage
	}
	return w
}

func TestCreateScan_DenormalizesColumns(t *testing.T) {
	db := newScanDB(t)

	wine := testWine("Cantina", "2019")
	region := "Piedmont"
	wine.Region = &region

	s, err := CreateScan(context.Background(), db, "u1", wine)
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if s.ID == "" {
		t.Fatal("missing id")
	}
	if s.Producer != "Cantina" || s.Region != "Piedmont" || s.Vintage != "2019" {
		t.Fatalf("denormalized columns: %+v", s)
	}
	if s.WineKey != "Cantina-Piedmont-2019" {
		t.Fatalf("wine key = %q", s.WineKey)
	}
	if s.Category != "red" {
		t.Fatalf("category = %q", s.Category)
	}

	got, err := GetScan(context.Background(), db, s.ID, "u1")
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	w := got.Wine()
	if w.Producer == nil || *w.Producer != "Cantina" || w.Category != domain.CategoryRed {
		t.Fatalf("round-trip wine: %+v", w)
	}
}

func TestGetScan_EnforcesOwnership(t *testing.T) {
	db := newScanDB(t)
	s, err := CreateScan(context.Background(), db, "u1", testWine("A", "2020"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := GetScan(context.Background(), db, s.ID, "u2"); err != ErrNotFound {
		t.Fatalf("foreign user err = %v, want ErrNotFound", err)
	}
	if _, err := GetScan(context.Background(), db, "missing", "u1"); err != ErrNotFound {
		t.Fatalf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestListScansPage_NewestFirst(t *testing.T) {
	db := newScanDB(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := CreateScan(ctx, db, "u1", testWine(fmt.Sprintf("P%d", i), "2020"))
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		// SQLite timestamp precision can collapse same-instant rows; force order.
		created := time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := db.Model(s).Update("created_at", created).Error; err != nil {
			t.Fatalf("backdate: %v", err)
		}
		ids = append(ids, s.ID)
	}
	if _, err := CreateScan(ctx, db, "u2", testWine("Other", "2021")); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	total, err := CountScans(ctx, db, "u1")
	if err != nil || total != 3 {
		t.Fatalf("CountScans = %d, %v", total, err)
	}

	page, err := ListScansPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListScansPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[2] || page[1].ID != ids[1] {
		t.Fatalf("page order: %v", []string{page[0].ID, page[1].ID})
	}

	rest, err := ListScansPage(ctx, db, "u1", 2, 2)
	if err != nil || len(rest) != 1 || rest[0].ID != ids[0] {
		t.Fatalf("second page: %v, %v", rest, err)
	}
}

func TestListScansByWineKey(t *testing.T) {
	db := newScanDB(t)
	ctx := context.Background()

	first, err := CreateScan(ctx, db, "u1", testWine("Cantina", "2019"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := CreateScan(ctx, db, "u1", testWine("Cantina", "2019")); err != nil {
		t.Fatalf("seed repeat: %v", err)
	}
	if _, err := CreateScan(ctx, db, "u1", testWine("Different", "2019")); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	matches, err := ListScansByWineKey(ctx, db, "u1", first.WineKey)
	if err != nil {
		t.Fatalf("ListScansByWineKey: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
}

func TestDeleteScan(t *testing.T) {
	db := newScanDB(t)
	ctx := context.Background()

	s, err := CreateScan(ctx, db, "u1", testWine("A", "2020"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := DeleteScan(ctx, db, s.ID, "u2"); err != ErrNotFound {
		t.Fatalf("foreign delete err = %v, want ErrNotFound", err)
	}
	if err := DeleteScan(ctx, db, s.ID, "u1"); err != nil {
		t.Fatalf("DeleteScan: %v", err)
	}
	if _, err := GetScan(ctx, db, s.ID, "u1"); err != ErrNotFound {
		t.Fatalf("deleted scan still readable: %v", err)
	}
	if err := DeleteScan(ctx, db, s.ID, "u1"); err != ErrNotFound {
		t.Fatalf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestScansStats(t *testing.T) {
	db := newScanDB(t)
	ctx := context.Background()

	count, maxAt, err := ScansStats(ctx, db, "u1")
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("empty stats = (%d, %v, %v)", count, maxAt, err)
	}

	if _, err := CreateScan(ctx, db, "u1", testWine("A", "2020")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	count, maxAt, err = ScansStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ScansStats: %v", err)
	}
	if count != 1 || maxAt == nil || maxAt.IsZero() {
		t.Fatalf("stats = (%d, %v)", count, maxAt)
	}
}
