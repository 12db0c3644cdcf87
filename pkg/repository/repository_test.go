package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/newsroll/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapErrorNil(t *testing.T) {
	got := repository.MapError(nil, errNotFound, errDuplicate)
	if got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapErrorNotFound(t *testing.T) {
	got := repository.MapError(sql.ErrNoRows, errNotFound, errDuplicate)
	if !errors.Is(got, errNotFound) {
		t.Errorf("MapError(ErrNoRows) = %v, want %v", got, errNotFound)
	}
}

func TestMapErrorDuplicate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	got := repository.MapError(pgErr, errNotFound, errDuplicate)
	if !errors.Is(got, errDuplicate) {
		t.Errorf("MapError(PgError 23505) = %v, want %v", got, errDuplicate)
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	original := errors.New("some other error")
	got := repository.MapError(original, errNotFound, errDuplicate)
	if got != original {
		t.Errorf("MapError(other) = %v, want %v", got, original)
	}
}

func TestMapErrorPgNonDuplicate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}
	got := repository.MapError(pgErr, errNotFound, errDuplicate)
	if got != pgErr {
		t.Errorf("MapError(PgError 23503) should pass through, got %v", got)
	}
}

// memConn is a minimal in-memory driver connection serving canned rows and
// recording statement activity, so the query and transaction helpers run
// through database/sql without a live server.
type memConn struct {
	cols    []string
	rows    [][]driver.Value
	execErr error

	execs     int
	begins    int
	commits   int
	rollbacks int
}

func (c *memConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements unsupported")
}

func (c *memConn) Close() error { return nil }

func (c *memConn) Begin() (driver.Tx, error) {
	c.begins++
	return &memTx{conn: c}, nil
}

func (c *memConn) QueryContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Rows, error) {
	pending := make([][]driver.Value, len(c.rows))
	copy(pending, c.rows)
	return &memRows{cols: c.cols, rows: pending}, nil
}

func (c *memConn) ExecContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Result, error) {
	if c.execErr != nil {
		return nil, c.execErr
	}
	c.execs++
	return driver.RowsAffected(1), nil
}

type memTx struct {
	conn *memConn
}

func (t *memTx) Commit() error {
	t.conn.commits++
	return nil
}

func (t *memTx) Rollback() error {
	t.conn.rollbacks++
	return nil
}

type memRows struct {
	cols []string
	rows [][]driver.Value
}

func (r *memRows) Columns() []string { return r.cols }
func (r *memRows) Close() error      { return nil }

func (r *memRows) Next(dest []driver.Value) error {
	if len(r.rows) == 0 {
		return io.EOF
	}
	copy(dest, r.rows[0])
	r.rows = r.rows[1:]
	return nil
}

type memConnector struct {
	conn *memConn
}

func (c memConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c memConnector) Driver() driver.Driver                        { return memDriver{conn: c.conn} }

type memDriver struct {
	conn *memConn
}

func (d memDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func memDB(conn *memConn) *sql.DB {
	return sql.OpenDB(memConnector{conn: conn})
}

type entry struct {
	name  string
	total int
}

func scanEntry(s repository.Scanner) (entry, error) {
	var e entry
	err := s.Scan(&e.name, &e.total)
	return e, err
}

func TestQueryMany(t *testing.T) {
	conn := &memConn{
		cols: []string{"name", "total"},
		rows: [][]driver.Value{{"alpha", int64(1)}, {"beta", int64(2)}},
	}
	db := memDB(conn)
	defer db.Close()

	got, err := repository.QueryMany(context.Background(), db, "SELECT name, total FROM entries", nil, scanEntry)
	if err != nil {
		t.Fatalf("QueryMany error: %v", err)
	}
	if len(got) != 2 || got[0].name != "alpha" || got[1].total != 2 {
		t.Errorf("QueryMany = %+v, want alpha/1 then beta/2", got)
	}
}

func TestQueryManyEmpty(t *testing.T) {
	conn := &memConn{cols: []string{"name", "total"}}
	db := memDB(conn)
	defer db.Close()

	got, err := repository.QueryMany(context.Background(), db, "SELECT name, total FROM entries", nil, scanEntry)
	if err != nil {
		t.Fatalf("QueryMany error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("QueryMany = %+v, want empty slice", got)
	}
}

func TestQueryOne(t *testing.T) {
	t.Run("returns the row", func(t *testing.T) {
		conn := &memConn{
			cols: []string{"name", "total"},
			rows: [][]driver.Value{{"alpha", int64(7)}},
		}
		db := memDB(conn)
		defer db.Close()

		got, err := repository.QueryOne(context.Background(), db, "SELECT name, total FROM entries", nil, scanEntry)
		if err != nil {
			t.Fatalf("QueryOne error: %v", err)
		}
		if got.name != "alpha" || got.total != 7 {
			t.Errorf("QueryOne = %+v, want alpha/7", got)
		}
	})

	t.Run("no rows surfaces ErrNoRows for MapError", func(t *testing.T) {
		conn := &memConn{cols: []string{"name", "total"}}
		db := memDB(conn)
		defer db.Close()

		_, err := repository.QueryOne(context.Background(), db, "SELECT name, total FROM entries", nil, scanEntry)
		if !errors.Is(err, sql.ErrNoRows) {
			t.Fatalf("QueryOne error = %v, want sql.ErrNoRows", err)
		}
		mapped := repository.MapError(err, errNotFound, errDuplicate)
		if !errors.Is(mapped, errNotFound) {
			t.Errorf("MapError = %v, want %v", mapped, errNotFound)
		}
	})
}

func TestExecMany(t *testing.T) {
	t.Run("one statement per arg set in one transaction", func(t *testing.T) {
		conn := &memConn{}
		db := memDB(conn)
		defer db.Close()

		batch := [][]any{{"a", 1}, {"b", 2}, {"c", 3}}
		if err := repository.ExecMany(context.Background(), db, "INSERT INTO entries VALUES ($1, $2)", batch); err != nil {
			t.Fatalf("ExecMany error: %v", err)
		}
		if conn.execs != 3 {
			t.Errorf("execs = %d, want 3", conn.execs)
		}
		if conn.begins != 1 || conn.commits != 1 {
			t.Errorf("begins/commits = %d/%d, want 1/1", conn.begins, conn.commits)
		}
	})

	t.Run("empty batch touches nothing", func(t *testing.T) {
		conn := &memConn{}
		db := memDB(conn)
		defer db.Close()

		if err := repository.ExecMany(context.Background(), db, "INSERT INTO entries VALUES ($1)", nil); err != nil {
			t.Fatalf("ExecMany error: %v", err)
		}
		if conn.begins != 0 || conn.execs != 0 {
			t.Errorf("begins/execs = %d/%d, want 0/0", conn.begins, conn.execs)
		}
	})

	t.Run("failure rolls the transaction back", func(t *testing.T) {
		conn := &memConn{execErr: errors.New("constraint violated")}
		db := memDB(conn)
		defer db.Close()

		err := repository.ExecMany(context.Background(), db, "INSERT INTO entries VALUES ($1)", [][]any{{"a"}})
		if err == nil {
			t.Fatal("ExecMany error = nil, want constraint violation")
		}
		if conn.commits != 0 {
			t.Errorf("commits = %d, want 0", conn.commits)
		}
		if conn.rollbacks != 1 {
			t.Errorf("rollbacks = %d, want 1", conn.rollbacks)
		}
	})
}

func TestWithTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		conn := &memConn{}
		db := memDB(conn)
		defer db.Close()

		got, err := repository.WithTx(context.Background(), db, func(tx *sql.Tx) (string, error) {
			if _, err := tx.ExecContext(context.Background(), "UPDATE entries SET total = 0"); err != nil {
				return "", err
			}
			return "done", nil
		})
		if err != nil {
			t.Fatalf("WithTx error: %v", err)
		}
		if got != "done" || conn.commits != 1 {
			t.Errorf("result/commits = %q/%d, want done/1", got, conn.commits)
		}
	})

	t.Run("rolls back on error", func(t *testing.T) {
		conn := &memConn{}
		db := memDB(conn)
		defer db.Close()

		boom := errors.New("boom")
		_, err := repository.WithTx(context.Background(), db, func(*sql.Tx) (string, error) {
			return "", boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx error = %v, want boom", err)
		}
		if conn.commits != 0 || conn.rollbacks != 1 {
			t.Errorf("commits/rollbacks = %d/%d, want 0/1", conn.commits, conn.rollbacks)
		}
	})
}
