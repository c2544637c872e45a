package store

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rowPatch accumulates SET fragments for a partial UPDATE. Only fields the
// caller explicitly set reach the statement; everything else is left untouched
// server-side. Optional empty-string values normalize to NULL before write.
type rowPatch struct {
	cols []string
	args []any
}

func (p *rowPatch) set(col string, val any) {
	p.cols = append(p.cols, col)
	p.args = append(p.args, val)
}

// setText writes a required text column; nil means "not set".
func (p *rowPatch) setText(col string, v *string) {
	if v == nil {
		return
	}
	p.set(col, strings.TrimSpace(*v))
}

// setNullText writes an optional text column; empty strings become NULL.
func (p *rowPatch) setNullText(col string, v *string) {
	if v == nil {
		return
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		p.set(col, nil)
		return
	}
	p.set(col, trimmed)
}

// setDate writes an optional date column from a form value in YYYY-MM-DD
// form; empty strings become NULL. Unparseable values are written as NULL
// rather than failing the whole update.
func (p *rowPatch) setDate(col string, v *string) {
	if v == nil {
		return
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		p.set(col, nil)
		return
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		p.set(col, nil)
		return
	}
	p.set(col, parsed)
}

func (p *rowPatch) setNumber(col string, v *float64) {
	if v == nil {
		return
	}
	p.set(col, *v)
}

func (p *rowPatch) setInt(col string, v *int) {
	if v == nil {
		return
	}
	p.set(col, *v)
}

func (p *rowPatch) setBool(col string, v *bool) {
	if v == nil {
		return
	}
	p.set(col, *v)
}

func (p *rowPatch) empty() bool {
	return len(p.cols) == 0
}

// clause renders "col1=$n, col2=$n+1" with placeholders starting at start,
// and returns the accumulated arguments.
func (p *rowPatch) clause(start int) (string, []any) {
	fragments := make([]string, len(p.cols))
	for i, col := range p.cols {
		fragments[i] = fmt.Sprintf("%s=$%d", col, start+i)
	}
	return strings.Join(fragments, ", "), p.args
}

// numeric scans a numeric column defensively: Postgres NUMERIC arrives as
// []byte, and imported rows have occasionally carried string-typed numbers.
type numeric struct {
	v *float64
}

func (n numeric) Scan(src any) error {
	switch val := src.(type) {
	case nil:
		*n.v = 0
		return nil
	case float64:
		*n.v = val
		return nil
	case int64:
		*n.v = float64(val)
		return nil
	case []byte:
		return n.parse(string(val))
	case string:
		return n.parse(val)
	default:
		return fmt.Errorf("numeric: unsupported type %T", src)
	}
}

func (n numeric) parse(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*n.v = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("numeric: parse %q: %w", raw, err)
	}
	*n.v = parsed
	return nil
}

var _ driver.Valuer = nullTime{}

// nullTime writes an optional timestamp, mapping nil to NULL.
type nullTime struct {
	t *time.Time
}

func (n nullTime) Value() (driver.Value, error) {
	if n.t == nil {
		return nil, nil
	}
	return *n.t, nil
}
