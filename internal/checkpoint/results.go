package checkpoint

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tablevet/tablevet/internal/expectation"
)

// Results is the outcome of a checkpoint run.
type Results struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`
	// Checkpoint, Suite, Table, and Datasource echo the definition the
	// run was built from.
	Checkpoint string `json:"checkpoint"`
	Suite      string `json:"suite"`
	Table      string `json:"table"`
	Datasource string `json:"datasource"`
	// Success reports whether every expectation held.
	Success bool `json:"success"`
	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// Expectations holds the per-expectation outcomes, in suite order.
	Expectations []*expectation.Result `json:"expectations"`
	// Statistics summarizes the per-expectation outcomes.
	Statistics Statistics `json:"statistics"`
}

// Statistics summarizes a checkpoint run.
type Statistics struct {
	// Evaluated is the number of expectations evaluated.
	Evaluated int `json:"evaluated"`
	// Successful and Unsuccessful partition Evaluated.
	Successful   int `json:"successful"`
	Unsuccessful int `json:"unsuccessful"`
	// SuccessPercent is Successful over Evaluated, as a percentage.
	SuccessPercent float64 `json:"success_percent"`
}

// finalize computes Success and Statistics from the expectation
// results.
func (r *Results) finalize() {
	stats := Statistics{Evaluated: len(r.Expectations)}
	for _, er := range r.Expectations {
		if er.Success {
			stats.Successful++
		} else {
			stats.Unsuccessful++
		}
	}
	if stats.Evaluated > 0 {
		stats.SuccessPercent = float64(stats.Successful) / float64(stats.Evaluated) * 100
	}

	r.Statistics = stats
	r.Success = stats.Unsuccessful == 0 && stats.Evaluated > 0
}

// Duration returns the elapsed run time.
func (r *Results) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// DetailJSON returns the per-expectation results as JSON for storage.
func (r *Results) DetailJSON() (string, error) {
	data, err := json.Marshal(r.Expectations)
	if err != nil {
		return "", fmt.Errorf("marshal run detail: %w", err)
	}
	return string(data), nil
}

// Summary builds a human-readable summary of the run.
func (r *Results) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Checkpoint %q on %s.%s: ", r.Checkpoint, r.Datasource, r.Table)
	if r.Success {
		sb.WriteString("PASS\n")
	} else {
		sb.WriteString("FAIL\n")
	}

	for _, er := range r.Expectations {
		status := "✗"
		if er.Success {
			status = "✓"
		}
		fmt.Fprintf(&sb, "  %s %s", status, er.Expectation.Describe())
		if !er.Success && er.Observed != "" {
			fmt.Fprintf(&sb, " (%s)", er.Observed)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "%d/%d expectations met (%.1f%%) in %v\n",
		r.Statistics.Successful, r.Statistics.Evaluated, r.Statistics.SuccessPercent, r.Duration().Round(time.Millisecond))

	return sb.String()
}
