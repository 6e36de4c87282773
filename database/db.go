// database/db.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

type dialect struct {
	driver string
	schema string
	lock   string
	// text yields a field as text for comparisons.
	text func(field string) string
	// order yields a field with its native JSON ordering.
	order func(field string) string
	has   func(field string) string
	// hasArg adapts the value bound to the has placeholder.
	hasArg func(v interface{}) (interface{}, error)
	bool   func(b bool) string
	// offsetOnly pages when only an offset is given.
	offsetOnly string
}

var postgresDialect = dialect{
	driver: "postgres",
	schema: `
        CREATE TABLE IF NOT EXISTS records (
            seq BIGSERIAL,
            kind VARCHAR(32) NOT NULL,
            id VARCHAR(128) NOT NULL,
            data JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (kind, id)
        )`,
	lock:  " FOR UPDATE",
	text:  func(f string) string { return fmt.Sprintf("data->>'%s'", f) },
	order: func(f string) string { return fmt.Sprintf("data->'%s'", f) },
	has:   func(f string) string { return fmt.Sprintf("(data->'%s') @> CAST(? AS jsonb)", f) },
	hasArg: func(v interface{}) (interface{}, error) {
		b, err := json.Marshal([]interface{}{v})
		return string(b), err
	},
	bool: func(b bool) string {
		if b {
			return "true"
		}
		return "false"
	},
	offsetOnly: " OFFSET ?",
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `
        CREATE TABLE IF NOT EXISTS records (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            kind TEXT NOT NULL,
            id TEXT NOT NULL,
            data TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(kind, id)
        )`,
	text:  func(f string) string { return fmt.Sprintf("CAST(json_extract(data, '$.%s') AS TEXT)", f) },
	order: func(f string) string { return fmt.Sprintf("json_extract(data, '$.%s')", f) },
	has: func(f string) string {
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(records.data, '$.%s') WHERE CAST(json_each.value AS TEXT) = ?)", f)
	},
	hasArg: func(v interface{}) (interface{}, error) { return valueText(v), nil },
	bool: func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	},
	offsetOnly: " LIMIT -1 OFFSET ?",
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect, nil
	case "sqlite":
		return sqliteDialect, nil
	}
	return dialect{}, fmt.Errorf("database: unsupported sql driver %q", driver)
}

// Connect opens and pings a SQL database.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if driver == "sqlite" {
		// one connection: sqlite serializes writers and :memory: is per connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}

	log.Info().Str("driver", driver).Msg("connected to database")
	return db, nil
}

// InitDB creates the records table.
func InitDB(db *sqlx.DB) error {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return err
	}
	if _, err := db.Exec(d.schema); err != nil {
		return fmt.Errorf("create records table: %w", err)
	}
	return nil
}

type sqlBackend struct {
	db *sqlx.DB
	d  dialect
}

// NewSQL builds a store on an open postgres or sqlite database.
func NewSQL(db *sqlx.DB) (*Store, error) {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	if err := InitDB(db); err != nil {
		return nil, err
	}
	return newStore(d.driver, &sqlBackend{db: db, d: d}), nil
}

const upsertRecord = `
        INSERT INTO records (kind, id, data) VALUES (?, ?, ?)
        ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`

func (s *sqlBackend) get(ctx context.Context, kind, id string) ([]byte, bool, error) {
	var doc []byte
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`SELECT data FROM records WHERE kind = ? AND id = ?`), kind, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", kind, id, err)
	}
	return doc, true, nil
}

func (s *sqlBackend) put(ctx context.Context, kind, id string, doc []byte) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(upsertRecord), kind, id, string(doc)); err != nil {
		return fmt.Errorf("put %s/%s: %w", kind, id, err)
	}
	return nil
}

func (s *sqlBackend) remove(ctx context.Context, kind, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM records WHERE kind = ? AND id = ?`), kind, id)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// likeEscaper makes a search term match literally inside LIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *sqlBackend) condition(c Condition) (string, interface{}, error) {
	switch c.Op {
	case OpEq:
		v := valueText(c.Value)
		if b, ok := c.Value.(bool); ok {
			v = s.d.bool(b)
		}
		return s.d.text(c.Field) + " = ?", v, nil
	case OpContains:
		term := likeEscaper.Replace(strings.ToLower(valueText(c.Value)))
		return "LOWER(" + s.d.text(c.Field) + `) LIKE ? ESCAPE '\'`, "%" + term + "%", nil
	case OpHas:
		arg, err := s.d.hasArg(c.Value)
		return s.d.has(c.Field), arg, err
	}
	return "", nil, fmt.Errorf("database: unknown operator %q", c.Op)
}

func (s *sqlBackend) buildList(kind string, q Query) (string, []interface{}, error) {
	var b strings.Builder
	args := []interface{}{kind}
	b.WriteString("SELECT data FROM records WHERE kind = ?")
	for _, group := range q.Where {
		parts := make([]string, 0, len(group))
		for _, c := range group {
			expr, arg, err := s.condition(c)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, expr)
			args = append(args, arg)
		}
		b.WriteString(" AND (" + strings.Join(parts, " OR ") + ")")
	}
	b.WriteString(" ORDER BY ")
	if q.OrderBy != "" {
		b.WriteString(s.d.order(q.OrderBy))
		if q.Descending {
			b.WriteString(" DESC")
		}
		b.WriteString(", ")
	}
	b.WriteString("seq")
	switch {
	case q.Limit > 0:
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, q.Limit, q.Offset)
	case q.Offset > 0:
		b.WriteString(s.d.offsetOnly)
		args = append(args, q.Offset)
	}
	return s.db.Rebind(b.String()), args, nil
}

func (s *sqlBackend) list(ctx context.Context, kind string, q Query) ([][]byte, error) {
	query, args, err := s.buildList(kind, q)
	if err != nil {
		return nil, err
	}
	var rows []string
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	docs := make([][]byte, len(rows))
	for i, r := range rows {
		docs[i] = []byte(r)
	}
	return docs, nil
}

func (s *sqlBackend) update(ctx context.Context, kind, id string, fn func([]byte, bool) ([]byte, error)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %s/%s: %w", kind, id, err)
	}
	defer tx.Rollback()

	var cur []byte
	exists := true
	err = tx.QueryRowxContext(ctx, tx.Rebind(`SELECT data FROM records WHERE kind = ? AND id = ?`+s.d.lock), kind, id).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("lock %s/%s: %w", kind, id, err)
	}

	next, err := fn(cur, exists)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(upsertRecord), kind, id, string(next)); err != nil {
		return fmt.Errorf("write %s/%s: %w", kind, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s/%s: %w", kind, id, err)
	}
	return nil
}

func (s *sqlBackend) ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqlBackend) close() error { return s.db.Close() }
