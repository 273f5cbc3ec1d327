package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dialect captures the few places Postgres and SQLite differ. Queries are
// written with ? placeholders and rebound per dialect.
type dialect string

const (
	dialectPostgres dialect = "pgx"
	dialectSQLite   dialect = "sqlite"
)

func (d dialect) rebind(q string) string {
	if d != dialectPostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) metaExistsQuery() string {
	if d == dialectPostgres {
		return `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'nexus_meta')`
	}
	return `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'nexus_meta')`
}

func (d dialect) schemaFile() string {
	if d == dialectPostgres {
		return "scripts/initdb.sql"
	}
	return "scripts/initdb_sqlite.sql"
}

// timeLayouts covers RFC 3339 text from Postgres and the formats the SQLite
// driver writes time.Time values in (time.Time.String by default).
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

// dbTime scans timestamps stored either natively or as text. Writes pass
// time.Time straight to the driver.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
