package datadocs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tablevet/tablevet/internal/checkpoint"
	"github.com/tablevet/tablevet/internal/expectation"
	"github.com/tablevet/tablevet/internal/history"
)

func sampleResults() *checkpoint.Results {
	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	r := &checkpoint.Results{
		RunID:      "run-abc",
		Checkpoint: "taxi_daily",
		Suite:      "taxi_trips",
		Table:      "trips",
		Datasource: "warehouse",
		Success:    false,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Expectations: []*expectation.Result{
			{
				Expectation: expectation.Expectation{Kind: expectation.ColumnValuesNotNull, Column: "vendor_id"},
				Success:     true,
				Observed:    "0 unexpected of 10",
			},
			{
				Expectation:       expectation.Expectation{Kind: expectation.ColumnValuesUnique, Column: "trip_id"},
				Success:           false,
				Observed:          "1 unexpected of 10",
				UnexpectedPercent: 10,
			},
		},
		Statistics: checkpoint.Statistics{Evaluated: 2, Successful: 1, Unsuccessful: 1, SuccessPercent: 50},
	}
	return r
}

func TestWriteRunPage(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "local_site"))

	path, err := b.WriteRunPage(sampleResults())
	if err != nil {
		t.Fatalf("WriteRunPage failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading run page: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"taxi_daily",
		"FAIL",
		"values in vendor_id must not be null",
		"values in trip_id must be unique",
		"1/2 expectations met",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("run page missing %q", want)
		}
	}
}

func TestWriteIndex(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "local_site"))

	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	runs := []*history.Run{
		{ID: "run-2", Checkpoint: "taxi_daily", TableName: "trips", Success: true, Evaluated: 4, StartedAt: started.Add(time.Hour)},
		{ID: "run-1", Checkpoint: "taxi_daily", TableName: "trips", Success: false, Evaluated: 4, Failed: 2, StartedAt: started},
	}

	path, err := b.WriteIndex(runs)
	if err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}
	if path != b.IndexPath() {
		t.Errorf("expected index at %s, got %s", b.IndexPath(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	content := string(data)

	for _, want := range []string{"PASS", "FAIL", "runs/run-1.html", "runs/run-2.html", "4 evaluated, 2 failed"} {
		if !strings.Contains(content, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestWriteIndexEmpty(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "local_site"))

	path, err := b.WriteIndex(nil)
	if err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	if !strings.Contains(string(data), "No validation runs") {
		t.Error("empty index missing placeholder text")
	}
}

func TestWriteRunPageFromHistory(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "local_site"))

	results := sampleResults()
	detail, err := results.DetailJSON()
	if err != nil {
		t.Fatalf("DetailJSON failed: %v", err)
	}

	run := &history.Run{
		ID:         results.RunID,
		Checkpoint: results.Checkpoint,
		Suite:      results.Suite,
		TableName:  results.Table,
		Datasource: results.Datasource,
		Success:    results.Success,
		Evaluated:  2,
		Failed:     1,
		Detail:     detail,
		StartedAt:  results.StartedAt,
		FinishedAt: results.FinishedAt,
	}

	path, err := b.WriteRunPageFromHistory(run)
	if err != nil {
		t.Fatalf("WriteRunPageFromHistory failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading run page: %v", err)
	}
	if !strings.Contains(string(data), "values in trip_id must be unique") {
		t.Error("rebuilt run page missing expectation description")
	}
}

func TestWriteRunPageFromHistoryBadDetail(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "local_site"))

	run := &history.Run{ID: "run-x", Detail: "{not json"}
	if _, err := b.WriteRunPageFromHistory(run); err == nil {
		t.Error("expected error for malformed stored detail")
	}
}
