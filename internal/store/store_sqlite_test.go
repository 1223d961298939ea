package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mohammad-safakhou/researcher/models"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewWithDSN(context.Background(), DriverSQLite, "file::memory:")
	if err != nil {
		t.Fatalf("NewWithDSN: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteRoundTrip(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	summary := json.RawMessage(`{"title":"Climate","key_points":[{"point":"p","detail":"d"}],"n":1.5}`)
	in := models.Report{
		Query:    "climate change",
		Title:    "Climate",
		Summary:  summary,
		Sources:  json.RawMessage(`[{"url":"https://a","title":"A","excerpt":"one"}]`),
		FullText: "one",
		Status:   models.StatusOK,
		Notes:    "https://b skipped: html_extract_failed",
	}
	id, err := st.SaveReport(ctx, in)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	first, err := st.GetReport(ctx, id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if string(first.Summary) != string(summary) {
		t.Fatalf("summary changed: %s", first.Summary)
	}
	if first.Notes != in.Notes || first.Status != models.StatusOK || first.Query != in.Query {
		t.Fatalf("unexpected report %+v", first)
	}
	if first.CreatedAt.IsZero() || first.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC created_at, got %v", first.CreatedAt)
	}

	second, err := st.GetReport(ctx, id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reads differ:\n%+v\n%+v", first, second)
	}

	sources, err := second.SourceList()
	if err != nil || len(sources) != 1 || sources[0].URL != "https://a" {
		t.Fatalf("unexpected sources %+v (%v)", sources, err)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	st := newSQLiteStore(t)
	if _, err := st.GetReport(context.Background(), 9999); !errors.Is(err, models.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestSQLiteListNewestFirst(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []int64
	for i, q := range []string{"first", "second", "third"} {
		id, err := st.SaveReport(ctx, models.Report{
			Query: q, Title: q, Status: models.StatusFailed,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
		ids = append(ids, id)
	}
	// same timestamp as "third": id breaks the tie
	tie, err := st.SaveReport(ctx, models.Report{Query: "tie", Title: "tie", Status: models.StatusOK, CreatedAt: base.Add(2 * time.Second)})
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, err := st.ListReports(ctx, 10)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	want := []int64{tie, ids[2], ids[1], ids[0]}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: got id %d want %d", i, got[i].ID, want[i])
		}
	}

	limited, err := st.ListReports(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("expected 2 rows, got %d (%v)", len(limited), err)
	}

	byID, err := st.ListReportsByID(ctx, []int64{ids[0], 999, tie})
	if err != nil {
		t.Fatalf("ListReportsByID: %v", err)
	}
	if len(byID) != 2 || byID[0].ID != ids[0] || byID[1].ID != tie {
		t.Fatalf("unexpected rows %+v", byID)
	}
}

func TestSQLiteFileReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	ctx := context.Background()

	st, err := NewWithDSN(ctx, DriverSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("NewWithDSN: %v", err)
	}
	id, err := st.SaveReport(ctx, models.Report{Query: "q", Title: "q", Status: models.StatusOK})
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	_ = st.Close()

	// migrations already applied: reopening must be a no-op
	st, err = NewWithDSN(ctx, DriverSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	if _, err := st.GetReport(ctx, id); err != nil {
		t.Fatalf("GetReport after reopen: %v", err)
	}
}

func TestMigrateDownAndUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	ctx := context.Background()
	dsn := "file:" + path
	if err := Migrate(ctx, DriverSQLite, dsn, "up", 0); err != nil {
		t.Fatalf("up: %v", err)
	}
	if err := Migrate(ctx, DriverSQLite, dsn, "up", 0); err != nil {
		t.Fatalf("second up should be a no-op: %v", err)
	}
	if err := Migrate(ctx, DriverSQLite, dsn, "down", 0); err != nil {
		t.Fatalf("down: %v", err)
	}
	if err := Migrate(ctx, DriverSQLite, dsn, "sideways", 0); err == nil {
		t.Fatal("expected unknown direction error")
	}
}

func TestNewWithDSNRejectsUnknownDriver(t *testing.T) {
	if _, err := NewWithDSN(context.Background(), "mysql", "x"); err == nil {
		t.Fatal("expected error")
	}
}
