package store

import "sync"

// ImportBatch buffers parser output in memory using fake (negative) IDs so a
// producer can link symbols and relationships before any of them exist in
// SQLite. CommitBatch rewrites the fake IDs to real ones.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type ImportBatch struct {
	mu sync.Mutex

	Symbols       []Symbol
	Relationships []Relationship

	nextFakeID int64 // starts at -1, decrements
}

// NewImportBatch creates an empty ImportBatch.
func NewImportBatch() *ImportBatch {
	return &ImportBatch{nextFakeID: -1}
}

func (b *ImportBatch) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

// AddSymbol buffers sym and returns its fake id. ParentSymbolID may refer to
// a fake id returned earlier by the same batch or to a real stored id.
func (b *ImportBatch) AddSymbol(sym *Symbol) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sym.ID = fakeID
	b.Symbols = append(b.Symbols, *sym)
	return fakeID
}

// AddRelationship buffers rel and returns its fake id. FromSymbolID and
// ToSymbolID may be fake ids from this batch or real stored ids.
func (b *ImportBatch) AddRelationship(rel *Relationship) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	rel.ID = fakeID
	b.Relationships = append(b.Relationships, *rel)
	return fakeID
}

// Len returns the number of buffered rows.
func (b *ImportBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Symbols) + len(b.Relationships)
}
