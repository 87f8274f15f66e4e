package expectation

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/tablevet/tablevet/internal/datasource"
)

// Result is the outcome of evaluating a single expectation.
type Result struct {
	// Expectation is the check that was evaluated.
	Expectation Expectation `json:"expectation"`
	// Success reports whether the expectation held.
	Success bool `json:"success"`
	// ElementCount is the number of values considered.
	ElementCount int64 `json:"element_count"`
	// UnexpectedCount is the number of values that violated the
	// expectation. Zero for aggregate kinds.
	UnexpectedCount int64 `json:"unexpected_count"`
	// UnexpectedPercent is UnexpectedCount over ElementCount, as a
	// percentage.
	UnexpectedPercent float64 `json:"unexpected_percent"`
	// Observed is a short display value: the aggregate that was
	// measured, or the unexpected count for row-level kinds.
	Observed string `json:"observed"`
}

// Evaluate runs a single expectation against a table. A returned error
// means the evaluation itself could not be carried out (bad SQL,
// connection loss); expectation violations are reported through the
// Result, not the error.
func Evaluate(ctx context.Context, db *datasource.DB, table string, e Expectation) (*Result, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	switch e.Kind {
	case ColumnValuesNotNull:
		return evaluateNotNull(ctx, db, table, e)
	case ColumnValuesUnique:
		return evaluateUnique(ctx, db, table, e)
	case ColumnValuesBetween:
		return evaluateValuesBetween(ctx, db, table, e)
	case ColumnValuesInSet:
		return evaluateValuesInSet(ctx, db, table, e)
	case ColumnValuesMatchRegex:
		return evaluateMatchRegex(ctx, db, table, e)
	case ColumnToExist:
		return evaluateColumnExists(ctx, db, table, e)
	case TableRowCountBetween:
		return evaluateRowCount(ctx, db, table, e)
	case ColumnMeanBetween:
		return evaluateAggregate(ctx, db, table, e, "AVG")
	case ColumnMinBetween:
		return evaluateAggregate(ctx, db, table, e, "MIN")
	case ColumnMaxBetween:
		return evaluateAggregate(ctx, db, table, e, "MAX")
	default:
		return nil, fmt.Errorf("unknown expectation kind %q", e.Kind)
	}
}

// rowLevelResult builds a Result for a row-level expectation from the
// element and unexpected counts, applying the mostly threshold.
func rowLevelResult(e Expectation, element, unexpected int64) *Result {
	r := &Result{
		Expectation:     e,
		ElementCount:    element,
		UnexpectedCount: unexpected,
	}
	if element > 0 {
		r.UnexpectedPercent = float64(unexpected) / float64(element) * 100
	}
	r.Success = 1-r.UnexpectedPercent/100 >= e.mostlyThreshold()
	if unexpected == 0 {
		// Guard against float rounding on clean runs.
		r.Success = true
	}
	r.Observed = fmt.Sprintf("%d unexpected of %d", unexpected, element)
	return r
}

func evaluateNotNull(ctx context.Context, db *datasource.DB, table string, e Expectation) (*Result, error) {
	col := db.QuoteIdent(e.Column)
	q := fmt.Sprintf("SELECT COUNT(*) AS total, COUNT(%s) AS present FROM %s", col, db.QuoteIdent(table))

	var row struct {
		Total   int64 `db:"total"`
		Present int64 `db:"present"`
	}
	if err := db.GetContext(ctx, &row, q); err != nil {
		return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
	}

	return rowLevelResult(e, row.Total, row.Total-row.Present), nil
}

func evaluateUnique(ctx context.Context, db *datasource.DB, table string, e Expectation) (*Result, error) {
	col := db.QuoteIdent(e.Column)
	q := fmt.Sprintf("SELECT COUNT(%s) AS total, COUNT(DISTINCT %s) AS uniq FROM %s", col, col, db.QuoteIdent(table))

	var row struct {
		Total int64 `db:"total"`
		Uniq  int64 `db:"uniq"`
	}
	if err := db.GetContext(ctx, &row, q); err != nil {
		return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
	}

	return rowLevelResult(e, row.Total, row.Total-row.Uniq), nil
}

func evaluateValuesBetween(ctx context.Context, db *datasource.DB, table string, e Expectation) (*Result, error) {
	col := db.QuoteIdent(e.Column)

	element, err := countNonNull(ctx, db, table, e.Column)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
	}

	var preds []string
	var args []any
	if e.Min != nil {
		preds = append(preds, fmt.Sprintf("%s < ?", col))
		args = append(args, *e.Min)
	}
	if e.Max != nil {
		preds = append(preds, fmt.Sprintf("%s > ?", col))
		args = append(args, *e.Max)
	}

	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND (%s)",
		db.QuoteIdent(table), col, strings.Join(preds, " OR "))

	var unexpected int64
	if err := db.GetContext(ctx, &unexpected, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
	}

	return rowLevelResult(e, element, unexpected), nil
}

func evaluateValuesInSet(ctx context.Context, db *datasource.DB, table string, e Expectation) (*Result, error) {
	col := db.QuoteIdent(e.Column)

	element, err := countNonNull(ctx, db, table, e.Column)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(e.ValueSet)), ", ")
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s NOT IN (%s)",
		db.QuoteIdent(table), col, col, placeholders)

	args := make([]any, len(e.ValueSet))
	for i, v := range e.ValueSet {
		args[i] = v
	}

	var unexpected int64
	if err := db.GetContext(ctx, &unexpected, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
	}

	return rowLevelResult(e, element, unexpected), nil
}

func evaluateMatchRegex(ctx context.Context, db *datasource.DB, table string, e Expectation) (*Result, error) {
	col := db.QuoteIdent(e.Column)

	// Postgres and MySQL evaluate the pattern in the database. SQLite
	// has no regex operator without an extension, so values are matched
	// in-process instead.
	switch db.Driver() {
	case "postgres", "mysql":
		element, err := countNonNull(ctx, db, table, e.Column)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
		}

		var q string
		if db.Driver() == "postgres" {
			q = fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s::text !~ ?",
				db.QuoteIdent(table), col, col)
		} else {
			q = fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s NOT REGEXP ?",
				db.QuoteIdent(table), col, col)
		}

		var unexpected int64
		if err := db.GetContext(ctx, &unexpected, db.Rebind(q), e.Regex); err != nil {
			return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
		}
		return rowLevelResult(e, element, unexpected), nil

	default:
		re, err := regexp.Compile(e.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling regex for %s on %s.%s: %w", e.Kind, table, e.Column, err)
		}

		q := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", col, db.QuoteIdent(table), col)
		rows, err := db.QueryContext(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
		}
		defer rows.Close()

		var element, unexpected int64
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				return nil, fmt.Errorf("scanning %s.%s: %w", table, e.Column, err)
			}
			element++
			if !re.MatchString(v) {
				unexpected++
			}
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
		}

		return rowLevelResult(e, element, unexpected), nil
	}
}

func evaluateColumnExists(ctx context.Context, db *datasource.DB, table string, e Expectation) (*Result, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE 1=0", db.QuoteIdent(e.Column), db.QuoteIdent(table))

	r := &Result{Expectation: e}
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		// The probe failing is the expectation failing, not an
		// evaluation error.
		r.Success = false
		r.Observed = "column not found"
		return r, nil
	}
	rows.Close()

	r.Success = true
	r.Observed = "column present"
	return r, nil
}

func evaluateRowCount(ctx context.Context, db *datasource.DB, table string, e Expectation) (*Result, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", db.QuoteIdent(table))

	var count int64
	if err := db.GetContext(ctx, &count, q); err != nil {
		return nil, fmt.Errorf("evaluating %s on %s: %w", e.Kind, table, err)
	}

	r := &Result{
		Expectation:  e,
		ElementCount: count,
		Success:      inBounds(float64(count), e.Min, e.Max),
		Observed:     fmt.Sprintf("%d rows", count),
	}
	return r, nil
}

func evaluateAggregate(ctx context.Context, db *datasource.DB, table string, e Expectation, fn string) (*Result, error) {
	q := fmt.Sprintf("SELECT %s(%s) FROM %s", fn, db.QuoteIdent(e.Column), db.QuoteIdent(table))

	var v sql.NullFloat64
	if err := db.GetContext(ctx, &v, q); err != nil {
		return nil, fmt.Errorf("evaluating %s on %s.%s: %w", e.Kind, table, e.Column, err)
	}

	r := &Result{Expectation: e}
	if !v.Valid {
		r.Success = false
		r.Observed = "no non-null values"
		return r, nil
	}

	r.Success = inBounds(v.Float64, e.Min, e.Max)
	r.Observed = fmt.Sprintf("%v", v.Float64)
	return r, nil
}

// countNonNull counts the non-null values of a column.
func countNonNull(ctx context.Context, db *datasource.DB, table, column string) (int64, error) {
	q := fmt.Sprintf("SELECT COUNT(%s) FROM %s", db.QuoteIdent(column), db.QuoteIdent(table))
	var n int64
	if err := db.GetContext(ctx, &n, q); err != nil {
		return 0, err
	}
	return n, nil
}

// inBounds reports whether v satisfies the optional min/max bounds.
func inBounds(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
