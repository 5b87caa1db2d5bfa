package sqlstore

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// sqliteTimeLayout is fixed-width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

type dialect struct {
	name       string
	driverName string
	migration  []string
}

var dialects = map[string]dialect{
	DriverPostgres: {
		name:       DriverPostgres,
		driverName: "postgres",
		migration: []string{
			`CREATE TABLE IF NOT EXISTS predictions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	input        JSONB NOT NULL,
	prob         DOUBLE PRECISION NOT NULL,
	top_features JSONB NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_predictions_user_created ON predictions (user_id, created_at DESC)`,
		},
	},
	DriverMySQL: {
		name:       DriverMySQL,
		driverName: "mysql",
		migration: []string{
			`CREATE TABLE IF NOT EXISTS predictions (
	id           CHAR(36) PRIMARY KEY,
	user_id      VARCHAR(255) NOT NULL,
	created_at   DATETIME(6) NOT NULL,
	input        JSON NOT NULL,
	prob         DOUBLE NOT NULL,
	top_features JSON NOT NULL,
	INDEX idx_predictions_user_created (user_id, created_at DESC)
)`,
		},
	},
	DriverSQLite: {
		name:       DriverSQLite,
		driverName: "sqlite",
		migration: []string{
			`CREATE TABLE IF NOT EXISTS predictions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	input        TEXT NOT NULL,
	prob         REAL NOT NULL,
	top_features TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_predictions_user_created ON predictions (user_id, created_at DESC)`,
		},
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, eris.Errorf("sqlstore: unsupported driver %q", driver)
	}
	return d, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (d dialect) rebind(q string) string {
	if d.name != DriverPostgres {
		return q
	}
	var b strings.Builder
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

func (d dialect) timeArg(t time.Time) any {
	t = t.UTC()
	if d.name == DriverSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

// scanTime accepts the time representations the drivers hand back.
type scanTime struct {
	time.Time
}

func (s *scanTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		s.Time = v.UTC()
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return eris.Errorf("sqlstore: cannot scan %T into time", src)
	}
}

func (s *scanTime) parse(v string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, v); err == nil {
			s.Time = t.UTC()
			return nil
		}
	}
	return eris.Errorf("sqlstore: unrecognized time %q", v)
}
