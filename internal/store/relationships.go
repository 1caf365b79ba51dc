package store

import (
	"database/sql"
	"fmt"
)

func (s *Store) InsertRelationship(rel *Relationship) (int64, error) {
	id, err := insertRelationshipTx(s.db, rel)
	if err != nil {
		return 0, err
	}
	rel.ID = id
	return id, nil
}

func insertRelationshipTx(e execer, rel *Relationship) (int64, error) {
	res, err := e.Exec(
		`INSERT INTO relationships (project_id, from_symbol_id, to_symbol_id, to_name, type,
		  confidence, context_line, context_column, context_snippet)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rel.ProjectID, rel.FromSymbolID, nullInt64(rel.ToSymbolID), nullString(rel.ToName), rel.Type,
		rel.Confidence, nullInt(rel.ContextLine), nullInt(rel.ContextColumn), nullString(rel.ContextSnippet),
	)
	if err != nil {
		return 0, fmt.Errorf("insert relationship: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

const relationshipColumns = `id, project_id, from_symbol_id, to_symbol_id, to_name, type,
  confidence, context_line, context_column, context_snippet`

func (s *Store) queryRelationships(query string, args ...any) ([]*Relationship, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rels []*Relationship
	for rows.Next() {
		rel := &Relationship{}
		var to, line, col sql.NullInt64
		var toName, snippet sql.NullString
		if err := rows.Scan(&rel.ID, &rel.ProjectID, &rel.FromSymbolID, &to, &toName, &rel.Type,
			&rel.Confidence, &line, &col, &snippet); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rel.ToSymbolID = int64Ptr(to)
		rel.ToName = toName.String
		rel.ContextLine = intPtr(line)
		rel.ContextColumn = intPtr(col)
		rel.ContextSnippet = snippet.String
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// Relationships returns a project's relationships with confidence at or above
// minConfidence, ordered by id. Unresolved relationships are included.
func (s *Store) Relationships(projectID int64, minConfidence float64) ([]*Relationship, error) {
	rels, err := s.queryRelationships(
		"SELECT "+relationshipColumns+" FROM relationships WHERE project_id = ? AND confidence >= ? ORDER BY id",
		projectID, minConfidence,
	)
	if err != nil {
		return nil, fmt.Errorf("relationships: %w", err)
	}
	return rels, nil
}

// UnresolvedRelationships returns relationships whose target is still a name.
func (s *Store) UnresolvedRelationships(projectID int64) ([]*Relationship, error) {
	rels, err := s.queryRelationships(
		"SELECT "+relationshipColumns+` FROM relationships
		 WHERE project_id = ? AND to_symbol_id IS NULL AND to_name IS NOT NULL ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("unresolved relationships: %w", err)
	}
	return rels, nil
}

// UpdateResolvedTarget binds a single relationship to a symbol.
func (s *Store) UpdateResolvedTarget(relationshipID, symbolID int64) error {
	_, err := s.db.Exec("UPDATE relationships SET to_symbol_id = ? WHERE id = ?", symbolID, relationshipID)
	if err != nil {
		return fmt.Errorf("update resolved target: %w", err)
	}
	return nil
}

// ApplyResolutions writes a set of bindings in a single transaction and
// returns how many rows changed. Relationships already bound are left as-is.
func (s *Store) ApplyResolutions(bindings []Resolution) (int, error) {
	if len(bindings) == 0 {
		return 0, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("apply resolutions: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE relationships SET to_symbol_id = ? WHERE id = ? AND to_symbol_id IS NULL")
	if err != nil {
		return 0, fmt.Errorf("apply resolutions: prepare: %w", err)
	}
	defer stmt.Close()

	updated := 0
	for _, b := range bindings {
		res, err := stmt.Exec(b.SymbolID, b.RelationshipID)
		if err != nil {
			return 0, fmt.Errorf("apply resolutions: relationship %d: %w", b.RelationshipID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("apply resolutions: rows affected: %w", err)
		}
		updated += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("apply resolutions: commit: %w", err)
	}
	return updated, nil
}
