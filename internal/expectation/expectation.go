// Package expectation defines table expectations and evaluates them
// against a datasource. An expectation is a single declarative check on
// a table or column; a suite groups the expectations a checkpoint runs.
package expectation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies an expectation type.
type Kind string

const (
	ColumnValuesNotNull    Kind = "column_values_not_null"
	ColumnValuesUnique     Kind = "column_values_unique"
	ColumnValuesBetween    Kind = "column_values_between"
	ColumnValuesInSet      Kind = "column_values_in_set"
	ColumnValuesMatchRegex Kind = "column_values_match_regex"
	ColumnToExist          Kind = "column_to_exist"
	TableRowCountBetween   Kind = "table_row_count_between"
	ColumnMeanBetween      Kind = "column_mean_between"
	ColumnMinBetween       Kind = "column_min_between"
	ColumnMaxBetween       Kind = "column_max_between"
)

// knownKinds lists every supported expectation kind.
var knownKinds = map[Kind]bool{
	ColumnValuesNotNull:    true,
	ColumnValuesUnique:     true,
	ColumnValuesBetween:    true,
	ColumnValuesInSet:      true,
	ColumnValuesMatchRegex: true,
	ColumnToExist:          true,
	TableRowCountBetween:   true,
	ColumnMeanBetween:      true,
	ColumnMinBetween:       true,
	ColumnMaxBetween:       true,
}

// aggregateKinds are evaluated on a whole-table aggregate rather than
// row by row; the mostly threshold does not apply to them.
var aggregateKinds = map[Kind]bool{
	ColumnToExist:        true,
	TableRowCountBetween: true,
	ColumnMeanBetween:    true,
	ColumnMinBetween:     true,
	ColumnMaxBetween:     true,
}

// Expectation is a single declarative check against a table.
type Expectation struct {
	// Kind selects the check to perform.
	Kind Kind `yaml:"kind"`
	// Column is the target column. Required for all column_* kinds.
	Column string `yaml:"column,omitempty"`
	// Min and Max bound *_between kinds. Either may be omitted for a
	// one-sided bound, but not both.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
	// ValueSet lists allowed values for column_values_in_set.
	ValueSet []string `yaml:"value_set,omitempty"`
	// Regex is the pattern for column_values_match_regex.
	Regex string `yaml:"regex,omitempty"`
	// Mostly is the minimum fraction of rows that must satisfy a
	// row-level expectation (0 < mostly <= 1). Zero means 1.0: every
	// row must pass.
	Mostly float64 `yaml:"mostly,omitempty"`
}

// Validate checks that the expectation is well formed.
func (e Expectation) Validate() error {
	if !knownKinds[e.Kind] {
		return fmt.Errorf("unknown expectation kind %q", e.Kind)
	}

	if e.Kind != TableRowCountBetween && e.Column == "" {
		return fmt.Errorf("expectation %s requires a column", e.Kind)
	}

	switch e.Kind {
	case ColumnValuesBetween, TableRowCountBetween, ColumnMeanBetween, ColumnMinBetween, ColumnMaxBetween:
		if e.Min == nil && e.Max == nil {
			return fmt.Errorf("expectation %s requires min, max, or both", e.Kind)
		}
		if e.Min != nil && e.Max != nil && *e.Min > *e.Max {
			return fmt.Errorf("expectation %s has min %v greater than max %v", e.Kind, *e.Min, *e.Max)
		}
	case ColumnValuesInSet:
		if len(e.ValueSet) == 0 {
			return fmt.Errorf("expectation %s requires a non-empty value_set", e.Kind)
		}
	case ColumnValuesMatchRegex:
		if e.Regex == "" {
			return fmt.Errorf("expectation %s requires a regex", e.Kind)
		}
	}

	if e.Mostly < 0 || e.Mostly > 1 {
		return fmt.Errorf("mostly must be between 0 and 1, got %v", e.Mostly)
	}
	if e.Mostly != 0 && aggregateKinds[e.Kind] {
		return fmt.Errorf("mostly does not apply to aggregate expectation %s", e.Kind)
	}

	return nil
}

// mostlyThreshold returns the effective mostly threshold: the
// configured value, or 1.0 when unset.
func (e Expectation) mostlyThreshold() float64 {
	if e.Mostly == 0 {
		return 1.0
	}
	return e.Mostly
}

// Describe returns a short human-readable description for reports.
func (e Expectation) Describe() string {
	var b strings.Builder

	switch e.Kind {
	case ColumnValuesNotNull:
		fmt.Fprintf(&b, "values in %s must not be null", e.Column)
	case ColumnValuesUnique:
		fmt.Fprintf(&b, "values in %s must be unique", e.Column)
	case ColumnValuesBetween:
		fmt.Fprintf(&b, "values in %s must be %s", e.Column, boundsLabel(e.Min, e.Max))
	case ColumnValuesInSet:
		fmt.Fprintf(&b, "values in %s must be in {%s}", e.Column, strings.Join(e.ValueSet, ", "))
	case ColumnValuesMatchRegex:
		fmt.Fprintf(&b, "values in %s must match /%s/", e.Column, e.Regex)
	case ColumnToExist:
		fmt.Fprintf(&b, "column %s must exist", e.Column)
	case TableRowCountBetween:
		fmt.Fprintf(&b, "row count must be %s", boundsLabel(e.Min, e.Max))
	case ColumnMeanBetween:
		fmt.Fprintf(&b, "mean of %s must be %s", e.Column, boundsLabel(e.Min, e.Max))
	case ColumnMinBetween:
		fmt.Fprintf(&b, "minimum of %s must be %s", e.Column, boundsLabel(e.Min, e.Max))
	case ColumnMaxBetween:
		fmt.Fprintf(&b, "maximum of %s must be %s", e.Column, boundsLabel(e.Min, e.Max))
	default:
		fmt.Fprintf(&b, "%s on %s", e.Kind, e.Column)
	}

	if e.Mostly != 0 {
		fmt.Fprintf(&b, " (mostly %.0f%%)", e.Mostly*100)
	}

	return b.String()
}

// boundsLabel formats a min/max pair for descriptions.
func boundsLabel(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("between %v and %v", *min, *max)
	case min != nil:
		return fmt.Sprintf("at least %v", *min)
	case max != nil:
		return fmt.Sprintf("at most %v", *max)
	default:
		return "unbounded"
	}
}

// Suite is a named collection of expectations.
type Suite struct {
	// Name identifies the suite; checkpoints reference it by name.
	Name string `yaml:"name"`
	// Expectations lists the checks to run, in order.
	Expectations []Expectation `yaml:"expectations"`
}

// Validate checks that the suite and all of its expectations are well
// formed.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("suite has no name")
	}
	if len(s.Expectations) == 0 {
		return fmt.Errorf("suite %q has no expectations", s.Name)
	}
	for i, e := range s.Expectations {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("suite %q expectation %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}

// LoadSuite reads and validates a suite from a YAML file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite %s: %w", path, err)
	}

	suite := &Suite{}
	if err := yaml.Unmarshal(data, suite); err != nil {
		return nil, fmt.Errorf("parsing suite %s: %w", path, err)
	}

	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", path, err)
	}

	return suite, nil
}
