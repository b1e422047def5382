package repositories

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/redbird/connect/internal/store"
)

// fakeStore is a scripted store.Store. Mutations succeed with one
// affected row unless failing is set; reads serve the rows seeded per
// table. Every mutation is recorded so tests can assert on store
// traffic.
type fakeStore struct {
	mu      sync.Mutex
	failing bool
	nextID  int64
	calls   []string
	tables  map[string][][]any
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 5000, tables: make(map[string][][]any)}
}

func (f *fakeStore) seed(table string, rows ...[]any) {
	f.tables[table] = append(f.tables[table], rows...)
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeStore) Execute(ctx context.Context, desc, sql string, args ...any) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, desc)
	if f.failing {
		return -1
	}
	return 1
}

func (f *fakeStore) ExecuteReturning(ctx context.Context, desc, sql string, args []any, dest ...any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, desc)
	if f.failing {
		return false
	}
	f.nextID++
	if p, ok := dest[0].(*int64); ok {
		*p = f.nextID
	}
	return true
}

func (f *fakeStore) Query(ctx context.Context, sql string, args []any, scan func(store.Rows) error) bool {
	if f.failing {
		return false
	}
	for table, rows := range f.tables {
		if strings.Contains(sql, "FROM "+table) {
			return scan(&sliceRows{rows: rows}) == nil
		}
	}
	return scan(&sliceRows{}) == nil
}

func (f *fakeStore) QueryRow(ctx context.Context, sql string, args []any, dest ...any) bool {
	return false
}

// sliceRows adapts seeded [][]any rows to the store.Rows cursor
type sliceRows struct {
	rows [][]any
	idx  int
}

func (r *sliceRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		if row[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}
