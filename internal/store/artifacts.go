package store

import (
	"database/sql"
	"fmt"
)

// --- Call chains ---

// ReplaceCallChains deletes a project's stored call chains and writes chains
// in their place, all in one transaction. Assigned ids are set on chains.
func (s *Store) ReplaceCallChains(projectID int64, chains []CallChain) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace call chains: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM call_chains WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("replace call chains: delete: %w", err)
	}

	for i := range chains {
		c := &chains[i]
		res, err := tx.Exec(
			"INSERT INTO call_chains (project_id, entry_point_id, max_depth, step_count) VALUES (?, ?, ?, ?)",
			projectID, c.EntryPointID, c.MaxDepth, len(c.Steps),
		)
		if err != nil {
			return fmt.Errorf("replace call chains: chain %d: %w", c.EntryPointID, err)
		}
		chainID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		for _, step := range c.Steps {
			if _, err := tx.Exec(
				"INSERT INTO call_chain_steps (chain_id, step_index, symbol_id, caller_id, depth) VALUES (?, ?, ?, ?, ?)",
				chainID, step.Index, step.SymbolID, nullInt64(step.CallerID), step.Depth,
			); err != nil {
				return fmt.Errorf("replace call chains: step %d of chain %d: %w", step.Index, chainID, err)
			}
		}
		c.ID = chainID
		c.ProjectID = projectID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace call chains: commit: %w", err)
	}
	return nil
}

// CallChains returns a project's stored chains with their steps in order.
func (s *Store) CallChains(projectID int64) ([]CallChain, error) {
	rows, err := s.db.Query(
		"SELECT id, project_id, entry_point_id, max_depth FROM call_chains WHERE project_id = ? ORDER BY id",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("call chains: %w", err)
	}
	var chains []CallChain
	index := make(map[int64]int)
	for rows.Next() {
		var c CallChain
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.EntryPointID, &c.MaxDepth); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan call chain: %w", err)
		}
		index[c.ID] = len(chains)
		chains = append(chains, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("call chains: %w", err)
	}
	if len(chains) == 0 {
		return chains, nil
	}

	stepRows, err := s.db.Query(
		`SELECT st.chain_id, st.step_index, st.symbol_id, st.caller_id, st.depth
		 FROM call_chain_steps st JOIN call_chains c ON c.id = st.chain_id
		 WHERE c.project_id = ? ORDER BY st.chain_id, st.step_index`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("call chain steps: %w", err)
	}
	defer stepRows.Close()
	for stepRows.Next() {
		var chainID int64
		var step CallChainStep
		var caller sql.NullInt64
		if err := stepRows.Scan(&chainID, &step.Index, &step.SymbolID, &caller, &step.Depth); err != nil {
			return nil, fmt.Errorf("scan call chain step: %w", err)
		}
		step.CallerID = int64Ptr(caller)
		if i, ok := index[chainID]; ok {
			chains[i].Steps = append(chains[i].Steps, step)
		}
	}
	return chains, stepRows.Err()
}

// --- Markers ---

// ReplaceMarkers removes a project's markers of the given kind and inserts
// markers in their place in one transaction. Duplicate (symbol, detail)
// pairs collapse to one row.
func (s *Store) ReplaceMarkers(projectID int64, marker string, markers []Marker) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace markers: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM symbol_markers WHERE project_id = ? AND marker = ?", projectID, marker); err != nil {
		return fmt.Errorf("replace markers: delete: %w", err)
	}
	for _, m := range markers {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO symbol_markers (project_id, symbol_id, marker, detail) VALUES (?, ?, ?, ?)",
			projectID, m.SymbolID, marker, m.Detail,
		); err != nil {
			return fmt.Errorf("replace markers: symbol %d: %w", m.SymbolID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace markers: commit: %w", err)
	}
	return nil
}

// Markers returns a project's markers of the given kind ordered by symbol.
func (s *Store) Markers(projectID int64, marker string) ([]Marker, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, symbol_id, marker, detail FROM symbol_markers
		 WHERE project_id = ? AND marker = ? ORDER BY symbol_id, detail`,
		projectID, marker,
	)
	if err != nil {
		return nil, fmt.Errorf("markers: %w", err)
	}
	defer rows.Close()
	var out []Marker
	for rows.Next() {
		var m Marker
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SymbolID, &m.Marker, &m.Detail); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
