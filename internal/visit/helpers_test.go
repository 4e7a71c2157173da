package visit

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/sfa-backend/internal/db"
)

// fakeProvider records every call made through it and can inject failures.
type fakeProvider struct {
	mu sync.Mutex

	acquireErr error
	beginErr   error
	commitErr  error
	// failExec is consulted on every Exec with its 1-based sequence number.
	failExec func(n int, query string) error

	acquires, begins, commits, rollbacks, closes int
	execs                                        []execCall
	beginOpts                                    *sql.TxOptions
	hadDeadline                                  bool
}

type execCall struct {
	query string
	args  []any
}

func (f *fakeProvider) Acquire(ctx context.Context) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return &fakeConn{f: f}, nil
}

func (f *fakeProvider) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.execs))
	for i, e := range f.execs {
		out[i] = e.query
	}
	return out
}

type fakeConn struct{ f *fakeProvider }

func (c *fakeConn) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.begins++
	c.f.beginOpts = opts
	_, c.f.hadDeadline = ctx.Deadline()
	if c.f.beginErr != nil {
		return nil, c.f.beginErr
	}
	return &fakeTx{f: c.f}, nil
}

func (c *fakeConn) Close() error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.closes++
	return nil
}

type fakeTx struct{ f *fakeProvider }

func (t *fakeTx) Exec(ctx context.Context, query string, args ...any) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.execs = append(t.f.execs, execCall{query: query, args: args})
	if t.f.failExec != nil {
		return t.f.failExec(len(t.f.execs), query)
	}
	return nil
}

func (t *fakeTx) Commit() error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.commits++
	return t.f.commitErr
}

func (t *fakeTx) Rollback() error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.rollbacks++
	return nil
}

func testPayload(id string, details ...Detail) *Payload {
	lat, lng := -6.2088, 106.8456
	return &Payload{
		VisitID:      ID(id),
		Date:         "2024-01-01",
		SupervisorID: "SPV1",
		CustomerID:   "C1",
		Latitude:     &lat,
		Longitude:    &lng,
		Start:        "2024-01-01T09:00:00",
		End:          "2024-01-01T09:30:00",
		Notes:        "toko ramai",
		FeatureID:    "F1",
		SalesID:      "S1",
		CallNumber:   "N1",
		Details:      details,
	}
}

func detail(id string, subs ...SubDetail) Detail {
	return Detail{DetailID: ID(id), SubDetails: subs}
}

func sub(id string, checked bool) SubDetail {
	return SubDetail{SubDetailID: ID(id), Checked: Flag(checked)}
}

// testDB opens a migrated SQLite database in a temp dir.
func testDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, d.Close())
	})
	return d
}

func countRows(t *testing.T, d *db.DB, table, visitID string) int {
	t.Helper()
	var n int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE id_visit = ?", visitID).Scan(&n), "count %s", table)
	return n
}
