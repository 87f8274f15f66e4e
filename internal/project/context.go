// Package project loads the validation context: the project
// configuration plus every expectation suite and checkpoint definition
// under the configuration directory. The context is the entry point for
// running checkpoints and publishing their results.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tablevet/tablevet/internal/checkpoint"
	"github.com/tablevet/tablevet/internal/config"
	"github.com/tablevet/tablevet/internal/datadocs"
	"github.com/tablevet/tablevet/internal/datasource"
	"github.com/tablevet/tablevet/internal/expectation"
	"github.com/tablevet/tablevet/internal/history"
	"github.com/tablevet/tablevet/internal/runlog"
)

// Context is the loaded validation context for one project directory.
type Context struct {
	// Dir is the configuration directory the context was loaded from.
	Dir string
	// Config is the project configuration from tablevet.yaml.
	Config *config.Config

	suites      map[string]*expectation.Suite
	checkpoints map[string]*checkpoint.Checkpoint
	log         *runlog.Logger
}

// Load checks prerequisites and loads the validation context from the
// given configuration directory.
func Load(dir string) (*Context, error) {
	if err := config.CheckPrerequisites(dir); err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Dir:         dir,
		Config:      cfg,
		suites:      make(map[string]*expectation.Suite),
		checkpoints: make(map[string]*checkpoint.Checkpoint),
	}

	if err := c.loadSuites(); err != nil {
		return nil, err
	}
	if err := c.loadCheckpoints(); err != nil {
		return nil, err
	}

	log, err := runlog.New(config.RunLogPath(dir))
	if err != nil {
		// Logging must not block validation.
		log = runlog.Nop()
	}
	c.log = log

	return c, nil
}

// Close releases resources held by the context.
func (c *Context) Close() error {
	return c.log.Close()
}

// loadSuites reads every YAML file under the suites directory.
func (c *Context) loadSuites() error {
	entries, err := yamlFiles(config.SuitesDir(c.Dir))
	if err != nil {
		return err
	}

	for _, path := range entries {
		suite, err := expectation.LoadSuite(path)
		if err != nil {
			return err
		}
		if _, exists := c.suites[suite.Name]; exists {
			return fmt.Errorf("duplicate suite name %q (from %s)", suite.Name, path)
		}
		c.suites[suite.Name] = suite
	}
	return nil
}

// loadCheckpoints reads every YAML file under the checkpoints
// directory.
func (c *Context) loadCheckpoints() error {
	entries, err := yamlFiles(config.CheckpointsDir(c.Dir))
	if err != nil {
		return err
	}

	for _, path := range entries {
		cp, err := checkpoint.Load(path)
		if err != nil {
			return err
		}
		if _, exists := c.checkpoints[cp.Name]; exists {
			return fmt.Errorf("duplicate checkpoint name %q (from %s)", cp.Name, path)
		}
		c.checkpoints[cp.Name] = cp
	}
	return nil
}

// yamlFiles lists the YAML files directly inside dir. A missing
// directory is treated as empty.
func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Checkpoint returns the named checkpoint, or a descriptive error when
// no checkpoint with that name is defined.
func (c *Context) Checkpoint(name string) (*checkpoint.Checkpoint, error) {
	cp, ok := c.checkpoints[name]
	if !ok {
		return nil, fmt.Errorf("checkpoint %q not found in %s", name, config.CheckpointsDir(c.Dir))
	}
	return cp, nil
}

// Suite returns the named expectation suite.
func (c *Context) Suite(name string) (*expectation.Suite, error) {
	s, ok := c.suites[name]
	if !ok {
		return nil, fmt.Errorf("expectation suite %q not found in %s", name, config.SuitesDir(c.Dir))
	}
	return s, nil
}

// CheckpointNames returns the defined checkpoint names, sorted.
func (c *Context) CheckpointNames() []string {
	names := make([]string, 0, len(c.checkpoints))
	for name := range c.checkpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SuiteNames returns the defined suite names, sorted.
func (c *Context) SuiteNames() []string {
	names := make([]string, 0, len(c.suites))
	for name := range c.suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultCheckpointName resolves the checkpoint to run when none is
// named: the configured default_checkpoint, or the sole defined
// checkpoint.
func (c *Context) DefaultCheckpointName() (string, error) {
	if c.Config.DefaultCheckpoint != "" {
		return c.Config.DefaultCheckpoint, nil
	}
	if len(c.checkpoints) == 1 {
		for name := range c.checkpoints {
			return name, nil
		}
	}
	if len(c.checkpoints) == 0 {
		return "", fmt.Errorf("no checkpoints defined in %s", config.CheckpointsDir(c.Dir))
	}
	return "", fmt.Errorf("multiple checkpoints defined; name one or set default_checkpoint in %s", config.ConfigFileName)
}

// DataDocsIndexPath returns the path of the generated Data Docs index.
func (c *Context) DataDocsIndexPath() string {
	return datadocs.NewBuilder(c.Config.SiteDir(c.Dir)).IndexPath()
}

// RunCheckpoint looks up a checkpoint by name, runs it, records the
// outcome in the run history, and updates the Data Docs site. The
// returned Results are non-nil exactly when err is nil.
func (c *Context) RunCheckpoint(ctx context.Context, name string) (*checkpoint.Results, error) {
	cp, err := c.Checkpoint(name)
	if err != nil {
		c.log.Errorf("%v", err)
		return nil, err
	}
	c.log.Infof("found checkpoint %q", name)

	suite, err := c.Suite(cp.Suite)
	if err != nil {
		c.log.Errorf("%v", err)
		return nil, fmt.Errorf("checkpoint %q: %w", name, err)
	}

	dsCfg, err := c.Config.Datasource(cp.Datasource)
	if err != nil {
		c.log.Errorf("%v", err)
		return nil, fmt.Errorf("checkpoint %q: %w", name, err)
	}

	db, err := datasource.Open(ctx, dsCfg.Driver, dsCfg.DSN)
	if err != nil {
		c.log.Errorf("%v", err)
		return nil, fmt.Errorf("checkpoint %q: %w", name, err)
	}
	defer db.Close()

	c.log.Infof("starting validation of %s.%s with suite %q", cp.Datasource, cp.Table, suite.Name)
	results, err := cp.Run(ctx, db, suite)
	if err != nil {
		c.log.Errorf("%v", err)
		return nil, err
	}
	c.log.Infof("validation completed: %d/%d expectations met",
		results.Statistics.Successful, results.Statistics.Evaluated)

	if err := c.publish(results); err != nil {
		c.log.Errorf("%v", err)
		return nil, err
	}

	return results, nil
}

// publish records the run in history and refreshes the Data Docs site.
func (c *Context) publish(results *checkpoint.Results) error {
	detail, err := results.DetailJSON()
	if err != nil {
		return err
	}

	db, err := history.Open(config.HistoryDBPath(c.Dir))
	if err != nil {
		return err
	}
	defer db.Close()

	run := &history.Run{
		ID:         results.RunID,
		Checkpoint: results.Checkpoint,
		Suite:      results.Suite,
		TableName:  results.Table,
		Datasource: results.Datasource,
		Success:    results.Success,
		Evaluated:  results.Statistics.Evaluated,
		Failed:     results.Statistics.Unsuccessful,
		Detail:     detail,
		StartedAt:  results.StartedAt,
		FinishedAt: results.FinishedAt,
	}
	if err := db.RecordRun(run); err != nil {
		return err
	}

	builder := datadocs.NewBuilder(c.Config.SiteDir(c.Dir))
	if _, err := builder.WriteRunPage(results); err != nil {
		return err
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		return err
	}
	if _, err := builder.WriteIndex(runs); err != nil {
		return err
	}

	return nil
}

// ListRuns returns recorded validation runs, newest first.
func (c *Context) ListRuns(limit int) ([]*history.Run, error) {
	db, err := history.Open(config.HistoryDBPath(c.Dir))
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.ListRuns(limit)
}

// BuildDataDocs rebuilds the whole Data Docs site from stored history.
func (c *Context) BuildDataDocs() error {
	db, err := history.Open(config.HistoryDBPath(c.Dir))
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(0)
	if err != nil {
		return err
	}

	builder := datadocs.NewBuilder(c.Config.SiteDir(c.Dir))
	for _, run := range runs {
		if _, err := builder.WriteRunPageFromHistory(run); err != nil {
			return err
		}
	}
	if _, err := builder.WriteIndex(runs); err != nil {
		return err
	}
	return nil
}
