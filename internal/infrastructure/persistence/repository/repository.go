package repository

import (
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/garyjia/training-procurement/internal/application/port"
)

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// whereClause renders filter as an AND of equality conditions.
// Only fields present in columns may be filtered on.
func whereClause(filter port.Filter, columns map[port.Field]string) (string, []interface{}, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	fields := make([]string, 0, len(filter))
	for f := range filter {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	conds := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		col, ok := columns[port.Field(f)]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", port.ErrUnknownFilterField, f)
		}
		conds = append(conds, col+" = ?")
		args = append(args, filterValue(filter[port.Field(f)]))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// filterValue unwraps enum types into driver-friendly primitives
func filterValue(v interface{}) interface{} {
	switch x := v.(type) {
	case fmt.Stringer:
		return x.String()
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullFloat64(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}

func float64Ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

// stamp returns t, or the current UTC time when t is zero
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
