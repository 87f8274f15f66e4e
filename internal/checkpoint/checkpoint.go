// Package checkpoint defines validation checkpoints and runs them.
// A checkpoint binds an expectation suite to a table in a datasource;
// running it evaluates every expectation and aggregates the outcome.
package checkpoint

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tablevet/tablevet/internal/datasource"
	"github.com/tablevet/tablevet/internal/expectation"
)

// Checkpoint is a named, pre-configured validation run definition.
type Checkpoint struct {
	// Name identifies the checkpoint.
	Name string `yaml:"name"`
	// Datasource names the datasource from tablevet.yaml.
	Datasource string `yaml:"datasource"`
	// Table is the table to validate.
	Table string `yaml:"table"`
	// Suite names the expectation suite to evaluate.
	Suite string `yaml:"suite"`
}

// Validate checks that the checkpoint is well formed.
func (cp *Checkpoint) Validate() error {
	if cp.Name == "" {
		return fmt.Errorf("checkpoint has no name")
	}
	if cp.Datasource == "" {
		return fmt.Errorf("checkpoint %q has no datasource", cp.Name)
	}
	if cp.Table == "" {
		return fmt.Errorf("checkpoint %q has no table", cp.Name)
	}
	if cp.Suite == "" {
		return fmt.Errorf("checkpoint %q has no suite", cp.Name)
	}
	return nil
}

// Load reads and validates a checkpoint definition from a YAML file.
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	cp := &Checkpoint{}
	if err := yaml.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}

	if err := cp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checkpoint %s: %w", path, err)
	}

	return cp, nil
}

// Run evaluates the suite's expectations against the checkpoint's table
// using an already-open datasource connection. A returned error means
// an expectation could not be evaluated; failed expectations are
// reported through Results.Success, not the error.
func (cp *Checkpoint) Run(ctx context.Context, db *datasource.DB, suite *expectation.Suite) (*Results, error) {
	results := &Results{
		RunID:      uuid.NewString(),
		Checkpoint: cp.Name,
		Suite:      suite.Name,
		Table:      cp.Table,
		Datasource: cp.Datasource,
		StartedAt:  time.Now(),
	}

	for _, e := range suite.Expectations {
		r, err := expectation.Evaluate(ctx, db, cp.Table, e)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %q: %w", cp.Name, err)
		}
		results.Expectations = append(results.Expectations, r)
	}

	results.FinishedAt = time.Now()
	results.finalize()

	return results, nil
}
