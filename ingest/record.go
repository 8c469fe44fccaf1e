package ingest

import (
	"database/sql"
	"strconv"
	"strings"
)

// Record is one decoded CSV row. Empty fields are NULL, never "".
type Record []sql.NullString

// NewRecord converts raw CSV fields into a Record. The slice is copied so the
// csv.Reader may reuse its backing array.
func NewRecord(fields []string) Record {
	rec := make(Record, len(fields))
	for i, f := range fields {
		if f == "" {
			continue
		}
		rec[i] = sql.NullString{String: f, Valid: true}
	}
	return rec
}

// TableID parses the first field as the record's table identifier.
func (r Record) TableID() (uint32, error) {
	if len(r) == 0 || !r[0].Valid {
		return 0, newError(ErrParse, "missing table identifier")
	}
	id, err := strconv.ParseUint(r[0].String, 10, 32)
	if err != nil {
		return 0, newError(ErrParse, "table identifier %q is not an unsigned integer", r[0].String)
	}
	return uint32(id), nil
}

// Args returns the bind arguments for a statement with the given number of
// placeholders. The row must have exactly one field per column: a short row
// is usually a volume cut off mid line.
func (r Record) Args(columns int) ([]any, error) {
	if len(r) != columns {
		return nil, newError(ErrParse, "row has %d fields, table has %d columns", len(r), columns)
	}
	args := make([]any, columns)
	for i := range r {
		args[i] = r[i]
	}
	return args, nil
}

// String renders the record for the error log, NULL fields as empty.
func (r Record) String() string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = f.String
	}
	return strings.Join(parts, ",")
}
