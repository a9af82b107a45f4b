package dxf

import (
	"fmt"
	"iter"
)

// EntityDB maps handles to records. Keys enumerate in insertion order so a
// walk over the database is deterministic.
type EntityDB struct {
	keys    []Handle
	records map[Handle]Entity
}

func NewEntityDB() *EntityDB {
	return &EntityDB{records: make(map[Handle]Entity)}
}

// Add inserts e under its handle. Adding a handle twice is an error.
func (db *EntityDB) Add(e Entity) error {
	h := e.Handle()
	if h == "" || h.IsNull() {
		return fmt.Errorf("invalid handle %q for %s", h, e.DXFType())
	}
	if _, ok := db.records[h]; ok {
		return fmt.Errorf("duplicate handle #%s", h)
	}
	db.keys = append(db.keys, h)
	db.records[h] = e
	return nil
}

func (db *EntityDB) Contains(h Handle) bool {
	_, ok := db.records[h]
	return ok
}

func (db *EntityDB) Get(h Handle) (Entity, bool) {
	e, ok := db.records[h]
	return e, ok
}

func (db *EntityDB) Len() int {
	return len(db.keys)
}

// Keys returns a copy of all handles in insertion order.
func (db *EntityDB) Keys() []Handle {
	out := make([]Handle, len(db.keys))
	copy(out, db.keys)
	return out
}

// All iterates (handle, record) pairs in insertion order.
func (db *EntityDB) All() iter.Seq2[Handle, Entity] {
	return func(yield func(Handle, Entity) bool) {
		for _, h := range db.keys {
			if !yield(h, db.records[h]) {
				return
			}
		}
	}
}
