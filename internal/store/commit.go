package store

import "fmt"

// CommitBatch inserts all buffered data from an ImportBatch into SQLite
// within a single transaction, under projectID. Fake (negative) IDs are
// remapped to real IDs, and every reference within the batch is rewritten
// using the returned fakeToReal mapping.
//
// Insert order: symbols in buffer order (a parent must be added before its
// children), then relationships.
func (s *Store) CommitBatch(projectID int64, batch *ImportBatch) (map[int64]int64, error) {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64, len(batch.Symbols)+len(batch.Relationships))
	remap := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		mapped, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("fake id %d not in batch", id)
		}
		return mapped, nil
	}

	for _, sym := range batch.Symbols {
		sym.ProjectID = projectID
		if sym.ParentSymbolID != nil {
			realID, err := remap(*sym.ParentSymbolID)
			if err != nil {
				return nil, fmt.Errorf("commit batch: symbol %q parent: %w", sym.Name, err)
			}
			sym.ParentSymbolID = &realID
		}
		realID, err := insertSymbolTx(tx, &sym)
		if err != nil {
			return nil, fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	for _, rel := range batch.Relationships {
		rel.ProjectID = projectID
		from, err := remap(rel.FromSymbolID)
		if err != nil {
			return nil, fmt.Errorf("commit batch: relationship from: %w", err)
		}
		rel.FromSymbolID = from
		if rel.ToSymbolID != nil {
			to, err := remap(*rel.ToSymbolID)
			if err != nil {
				return nil, fmt.Errorf("commit batch: relationship to: %w", err)
			}
			rel.ToSymbolID = &to
		}
		realID, err := insertRelationshipTx(tx, &rel)
		if err != nil {
			return nil, fmt.Errorf("commit batch: relationship %d->%q: %w", rel.FromSymbolID, rel.ToName, err)
		}
		fakeToReal[rel.ID] = realID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: commit: %w", err)
	}
	return fakeToReal, nil
}
