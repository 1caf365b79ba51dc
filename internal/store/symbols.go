package store

import (
	"database/sql"
	"fmt"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// --- Project operations ---

// EnsureProject returns the id of the named project, creating it if needed.
func (s *Store) EnsureProject(name, rootPath string) (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM projects WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("project by name: %w", err)
	}
	res, err := s.db.Exec("INSERT INTO projects (name, root_path) VALUES (?, ?)", name, nullString(rootPath))
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ProjectByName returns the named project, or nil if it does not exist.
func (s *Store) ProjectByName(name string) (*Project, error) {
	p := &Project{}
	var root sql.NullString
	err := s.db.QueryRow("SELECT id, name, root_path FROM projects WHERE name = ?", name).
		Scan(&p.ID, &p.Name, &root)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("project by name: %w", err)
	}
	p.RootPath = root.String
	return p, nil
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbolTx(s.db, sym)
	if err != nil {
		return 0, err
	}
	sym.ID = id
	return id, nil
}

func insertSymbolTx(e execer, sym *Symbol) (int64, error) {
	res, err := e.Exec(
		`INSERT INTO symbols (project_id, name, qualified_name, kind, file_path, line, col,
		  namespace, parent_symbol_id, tags, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.ProjectID, sym.Name, nullString(sym.QualifiedName), sym.Kind, nullString(sym.FilePath),
		sym.Line, sym.Column, nullString(sym.Namespace), nullInt64(sym.ParentSymbolID),
		marshalTags(sym.Tags), sym.Confidence,
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

const symbolColumns = `id, project_id, name, qualified_name, kind, file_path, line, col,
  namespace, parent_symbol_id, tags, confidence`

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var syms []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		syms = append(syms, sym)
	}
	return syms, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSymbol(r rowScanner) (*Symbol, error) {
	sym := &Symbol{}
	var qname, file, ns, tags sql.NullString
	var line, col, parent sql.NullInt64
	if err := r.Scan(&sym.ID, &sym.ProjectID, &sym.Name, &qname, &sym.Kind, &file, &line, &col,
		&ns, &parent, &tags, &sym.Confidence); err != nil {
		return nil, err
	}
	sym.QualifiedName = qname.String
	sym.FilePath = file.String
	sym.Line = int(line.Int64)
	sym.Column = int(col.Int64)
	sym.Namespace = ns.String
	sym.ParentSymbolID = int64Ptr(parent)
	sym.Tags = unmarshalTags(tags.String)
	return sym, nil
}

// AllSymbols returns every symbol of a project ordered by id.
func (s *Store) AllSymbols(projectID int64) ([]*Symbol, error) {
	syms, err := s.querySymbols(
		"SELECT "+symbolColumns+" FROM symbols WHERE project_id = ? ORDER BY id", projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("all symbols: %w", err)
	}
	return syms, nil
}

// SymbolByID returns a symbol, or nil if none has that id.
func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	sym, err := scanSymbol(s.db.QueryRow("SELECT "+symbolColumns+" FROM symbols WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

// SymbolsByIDs returns the symbols with the given ids, in id order.
func (s *Store) SymbolsByIDs(ids []int64) ([]*Symbol, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	syms, err := s.querySymbols(
		"SELECT "+symbolColumns+" FROM symbols WHERE id IN ("+placeholderList(len(ids))+") ORDER BY id",
		int64sToArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("symbols by ids: %w", err)
	}
	return syms, nil
}

// SymbolsByName returns a project's symbols whose simple or qualified name
// equals name.
func (s *Store) SymbolsByName(projectID int64, name string) ([]*Symbol, error) {
	syms, err := s.querySymbols(
		"SELECT "+symbolColumns+" FROM symbols WHERE project_id = ? AND (name = ? OR qualified_name = ?) ORDER BY id",
		projectID, name, name,
	)
	if err != nil {
		return nil, fmt.Errorf("symbols by name: %w", err)
	}
	return syms, nil
}
