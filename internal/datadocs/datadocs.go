// Package datadocs renders the Data Docs site: static HTML pages
// describing validation runs, written under the project's uncommitted/
// directory. The site has an index listing run history and one page per
// run with per-expectation detail.
package datadocs

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/tablevet/tablevet/internal/checkpoint"
	"github.com/tablevet/tablevet/internal/expectation"
	"github.com/tablevet/tablevet/internal/history"
)

// Builder writes Data Docs pages into a site directory.
type Builder struct {
	siteDir string
}

// NewBuilder creates a builder writing into siteDir.
func NewBuilder(siteDir string) *Builder {
	return &Builder{siteDir: siteDir}
}

// IndexPath returns the path of the site index page.
func (b *Builder) IndexPath() string {
	return filepath.Join(b.siteDir, "index.html")
}

// runPagePath returns the page path for a run ID.
func (b *Builder) runPagePath(runID string) string {
	return filepath.Join(b.siteDir, "runs", runID+".html")
}

// WriteRunPage renders the detail page for a completed checkpoint run
// and returns its path.
func (b *Builder) WriteRunPage(results *checkpoint.Results) (string, error) {
	page := runPage{
		RunID:      results.RunID,
		Checkpoint: results.Checkpoint,
		Suite:      results.Suite,
		Table:      results.Table,
		Datasource: results.Datasource,
		Success:    results.Success,
		StartedAt:  results.StartedAt,
		Duration:   results.Duration().Round(time.Millisecond).String(),
		Statistics: results.Statistics,
	}
	for _, er := range results.Expectations {
		page.Rows = append(page.Rows, expectationRow{
			Description:       er.Expectation.Describe(),
			Success:           er.Success,
			Observed:          er.Observed,
			UnexpectedPercent: er.UnexpectedPercent,
		})
	}

	path := b.runPagePath(results.RunID)
	if err := b.render(path, runTemplate, page); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRunPageFromHistory re-renders a run page from a stored history
// record, using the run's persisted expectation detail.
func (b *Builder) WriteRunPageFromHistory(run *history.Run) (string, error) {
	page := runPage{
		RunID:      run.ID,
		Checkpoint: run.Checkpoint,
		Suite:      run.Suite,
		Table:      run.TableName,
		Datasource: run.Datasource,
		Success:    run.Success,
		StartedAt:  run.StartedAt,
		Duration:   run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
		Statistics: checkpoint.Statistics{
			Evaluated:    run.Evaluated,
			Successful:   run.Evaluated - run.Failed,
			Unsuccessful: run.Failed,
		},
	}
	if run.Evaluated > 0 {
		page.Statistics.SuccessPercent = float64(run.Evaluated-run.Failed) / float64(run.Evaluated) * 100
	}

	if run.Detail != "" {
		var results []*expectation.Result
		if err := json.Unmarshal([]byte(run.Detail), &results); err != nil {
			return "", fmt.Errorf("parse stored run detail for %s: %w", run.ID, err)
		}
		for _, er := range results {
			page.Rows = append(page.Rows, expectationRow{
				Description:       er.Expectation.Describe(),
				Success:           er.Success,
				Observed:          er.Observed,
				UnexpectedPercent: er.UnexpectedPercent,
			})
		}
	}

	path := b.runPagePath(run.ID)
	if err := b.render(path, runTemplate, page); err != nil {
		return "", err
	}
	return path, nil
}

// WriteIndex renders the site index from run history, newest first, and
// returns its path.
func (b *Builder) WriteIndex(runs []*history.Run) (string, error) {
	page := indexPage{GeneratedAt: time.Now()}
	for _, r := range runs {
		page.Runs = append(page.Runs, indexRow{
			RunID:      r.ID,
			Checkpoint: r.Checkpoint,
			Table:      r.TableName,
			Success:    r.Success,
			Evaluated:  r.Evaluated,
			Failed:     r.Failed,
			StartedAt:  r.StartedAt,
		})
	}

	path := b.IndexPath()
	if err := b.render(path, indexTemplate, page); err != nil {
		return "", err
	}
	return path, nil
}

// render executes a template into a file, creating parent directories.
func (b *Builder) render(path string, tmpl *template.Template, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data docs directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create data docs page: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("render data docs page %s: %w", path, err)
	}
	return nil
}

// runPage is the template payload for a run detail page.
type runPage struct {
	RunID      string
	Checkpoint string
	Suite      string
	Table      string
	Datasource string
	Success    bool
	StartedAt  time.Time
	Duration   string
	Statistics checkpoint.Statistics
	Rows       []expectationRow
}

// expectationRow is one expectation outcome on a run page.
type expectationRow struct {
	Description       string
	Success           bool
	Observed          string
	UnexpectedPercent float64
}

// indexPage is the template payload for the site index.
type indexPage struct {
	GeneratedAt time.Time
	Runs        []indexRow
}

// indexRow is one run on the index page.
type indexRow struct {
	RunID      string
	Checkpoint string
	Table      string
	Success    bool
	Evaluated  int
	Failed     int
	StartedAt  time.Time
}
