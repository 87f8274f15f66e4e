package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tablevet/tablevet/internal/datasource"
	"github.com/tablevet/tablevet/internal/expectation"
)

func f(v float64) *float64 { return &v }

func openSeededDB(t *testing.T) *datasource.DB {
	t.Helper()

	db, err := datasource.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE trips (trip_id TEXT, fare_amount REAL)`,
		`INSERT INTO trips VALUES ('t1', 10.0), ('t2', 25.5), ('t3', 7.0)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed table: %v", err)
		}
	}
	return db
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxi_daily.yaml")
	content := `
name: taxi_daily
datasource: warehouse
table: trips
suite: taxi_trips
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write checkpoint: %v", err)
	}

	cp, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp.Name != "taxi_daily" || cp.Suite != "taxi_trips" || cp.Table != "trips" {
		t.Errorf("unexpected checkpoint %+v", cp)
	}
}

func TestLoadIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("name: lonely\n"), 0644); err != nil {
		t.Fatalf("write checkpoint: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for checkpoint without datasource/table/suite")
	}
}

func TestRunSuccess(t *testing.T) {
	db := openSeededDB(t)

	cp := &Checkpoint{Name: "taxi_daily", Datasource: "local", Table: "trips", Suite: "taxi_trips"}
	suite := &expectation.Suite{
		Name: "taxi_trips",
		Expectations: []expectation.Expectation{
			{Kind: expectation.ColumnValuesNotNull, Column: "trip_id"},
			{Kind: expectation.ColumnValuesBetween, Column: "fare_amount", Min: f(0), Max: f(100)},
			{Kind: expectation.TableRowCountBetween, Min: f(1)},
		},
	}

	results, err := cp.Run(context.Background(), db, suite)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !results.Success {
		t.Errorf("expected success, got %+v", results.Statistics)
	}
	if results.Statistics.Evaluated != 3 || results.Statistics.Successful != 3 {
		t.Errorf("expected 3/3 successful, got %+v", results.Statistics)
	}
	if results.RunID == "" {
		t.Error("expected a run ID")
	}
	if results.FinishedAt.Before(results.StartedAt) {
		t.Error("finished_at precedes started_at")
	}
}

func TestRunFailure(t *testing.T) {
	db := openSeededDB(t)

	cp := &Checkpoint{Name: "taxi_daily", Datasource: "local", Table: "trips", Suite: "taxi_trips"}
	suite := &expectation.Suite{
		Name: "taxi_trips",
		Expectations: []expectation.Expectation{
			{Kind: expectation.ColumnValuesNotNull, Column: "trip_id"},
			{Kind: expectation.TableRowCountBetween, Min: f(100)},
		},
	}

	results, err := cp.Run(context.Background(), db, suite)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if results.Success {
		t.Error("expected failure: only 3 rows")
	}
	if results.Statistics.Unsuccessful != 1 {
		t.Errorf("expected 1 unsuccessful, got %+v", results.Statistics)
	}

	summary := results.Summary()
	if !strings.Contains(summary, "FAIL") {
		t.Errorf("summary missing FAIL marker:\n%s", summary)
	}
	if !strings.Contains(summary, "1/2") {
		t.Errorf("summary missing 1/2 count:\n%s", summary)
	}
}

func TestRunEvaluationError(t *testing.T) {
	db := openSeededDB(t)

	cp := &Checkpoint{Name: "broken", Datasource: "local", Table: "no_such_table", Suite: "s"}
	suite := &expectation.Suite{
		Name: "s",
		Expectations: []expectation.Expectation{
			{Kind: expectation.ColumnValuesNotNull, Column: "x"},
		},
	}

	if _, err := cp.Run(context.Background(), db, suite); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestDetailJSON(t *testing.T) {
	db := openSeededDB(t)

	cp := &Checkpoint{Name: "taxi_daily", Datasource: "local", Table: "trips", Suite: "taxi_trips"}
	suite := &expectation.Suite{
		Name: "taxi_trips",
		Expectations: []expectation.Expectation{
			{Kind: expectation.ColumnValuesNotNull, Column: "trip_id"},
		},
	}

	results, err := cp.Run(context.Background(), db, suite)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	detail, err := results.DetailJSON()
	if err != nil {
		t.Fatalf("DetailJSON failed: %v", err)
	}
	if !strings.Contains(detail, "column_values_not_null") {
		t.Errorf("detail missing expectation kind: %s", detail)
	}
}
