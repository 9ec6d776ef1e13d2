// Package memstore is an in-memory storage adapter for the generic repositories.
//
// Committed data lives in an immutable snapshot. A transaction copies the tables it
// writes, and a successful commit swaps the snapshot in one step, so readers observe
// either all of a commit's writes or none of them. Writers are serialized.
package memstore

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/rise-and-shine/blocks/uow"
)

type rows = map[any]any

type snapshot struct {
	tables map[string]rows
}

// DB holds the committed state of every table.
type DB struct {
	state   atomic.Pointer[snapshot]
	writeMu sync.Mutex
}

var _ uow.Beginner[*Tx] = (*DB)(nil)

func NewDB() *DB {
	db := &DB{}
	db.state.Store(&snapshot{tables: map[string]rows{}})
	return db
}

// Tx is a write transaction. Tables are copied on first write.
type Tx struct {
	base *snapshot
	work map[string]rows
}

// RunInTx runs fn against a private copy of the data and publishes the copy only when fn
// succeeds.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx := &Tx{base: db.state.Load(), work: map[string]rows{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	next := &snapshot{tables: maps.Clone(tx.base.tables)}
	maps.Copy(next.tables, tx.work)
	db.state.Store(next)
	return nil
}

func (db *DB) view() *View {
	return &View{snap: db.state.Load()}
}

func (tx *Tx) read(table string) rows {
	if r, ok := tx.work[table]; ok {
		return r
	}
	return tx.base.tables[table]
}

func (tx *Tx) write(table string) rows {
	if r, ok := tx.work[table]; ok {
		return r
	}
	r := maps.Clone(tx.base.tables[table])
	if r == nil {
		r = rows{}
	}
	tx.work[table] = r
	return r
}

// View is a consistent read-only snapshot handed to relation loaders.
type View struct {
	snap *snapshot
}

func (v *View) rows(table string) rows {
	return v.snap.tables[table]
}
