package usage

import (
	"fmt"
	"strings"
	"time"
)

// buildWhereClause joins condition strings into a SQL WHERE clause.
// Returns an empty string when conditions is empty.
func buildWhereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// dateBounds converts the inclusive day range to a half-open [start, end) range.
func dateBounds(params UsageQueryParams) (start, end time.Time) {
	if !params.StartDate.IsZero() {
		start = truncateDay(params.StartDate)
	}
	if !params.EndDate.IsZero() {
		end = truncateDay(params.EndDate).AddDate(0, 0, 1)
	}
	return start, end
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sqlFilters builds the conditions and arguments shared by the SQL readers.
// placeholder renders the n-th (1-based) bind parameter; timeArg converts
// bounds to the column's representation.
func sqlFilters(params UsageQueryParams, placeholder func(n int) string, timeArg func(time.Time) any) ([]string, []any) {
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, placeholder(len(args))))
	}

	start, end := dateBounds(params)
	if !start.IsZero() {
		add("timestamp >= %s", timeArg(start))
	}
	if !end.IsZero() {
		add("timestamp < %s", timeArg(end))
	}
	if params.Strategy != "" {
		add("strategy = %s", params.Strategy)
	}
	return conditions, args
}
