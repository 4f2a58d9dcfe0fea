package tabular

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	_ "modernc.org/sqlite"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
)

// SQLiteStore is a disposable per-session relational store backed by a
// single sqlite file. It holds one active table at a time; ingesting a
// new CSV replaces whatever was there before. Queries run on a separate
// read-only connection, so even a statement that slipped past
// validation could not modify the data.
type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
	ro *sql.DB
}

// NewSQLiteStore opens (or creates) the session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	return &SQLiteStore{path: path, db: db}, nil
}

// IngestCSV replaces the active table with the contents of the CSV.
// Column types are inferred by scanning every value: a column where all
// values parse as integers becomes INTEGER, all-numeric becomes REAL,
// anything else TEXT.
func (s *SQLiteStore) IngestCSV(data []byte, filename string) (domain.TableSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return domain.TableSchema{}, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) < 1 || len(records[0]) == 0 {
		return domain.TableSchema{}, fmt.Errorf("CSV has no header row")
	}

	header := records[0]
	rows := records[1:]

	columns := make([]domain.Column, len(header))
	for i, name := range header {
		columns[i] = domain.Column{
			Name: sanitizeIdentifier(name, fmt.Sprintf("col_%d", i+1)),
			Type: inferColumnType(rows, i),
		}
	}
	table := sanitizeIdentifier(strings.TrimSuffix(filename, ".csv"), "data")

	tx, err := s.db.Begin()
	if err != nil {
		return domain.TableSchema{}, fmt.Errorf("failed to begin ingest: %w", err)
	}
	defer tx.Rollback()

	// The session store holds exactly one dataset: drop everything that
	// came before.
	existing, err := userTables(tx)
	if err != nil {
		return domain.TableSchema{}, err
	}
	for _, name := range existing {
		if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", name)); err != nil {
			return domain.TableSchema{}, fmt.Errorf("failed to drop old table %q: %w", name, err)
		}
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = fmt.Sprintf("%q %s", col.Name, col.Type)
	}
	createStmt := fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(defs, ", "))
	if _, err := tx.Exec(createStmt); err != nil {
		return domain.TableSchema{}, fmt.Errorf("failed to create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	insertStmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, placeholders))
	if err != nil {
		return domain.TableSchema{}, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertStmt.Close()

	for _, row := range rows {
		values := make([]any, len(columns))
		for i := range columns {
			if i < len(row) {
				values[i] = row[i]
			} else {
				values[i] = nil
			}
		}
		if _, err := insertStmt.Exec(values...); err != nil {
			return domain.TableSchema{}, fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.TableSchema{}, fmt.Errorf("failed to commit ingest: %w", err)
	}

	return domain.TableSchema{Table: table, Columns: columns, RowCount: len(rows)}, nil
}

// Schema returns the active table's schema, or ok=false when no CSV has
// been ingested yet.
func (s *SQLiteStore) Schema() (domain.TableSchema, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var table string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' LIMIT 1",
	).Scan(&table)
	if err == sql.ErrNoRows {
		return domain.TableSchema{}, false, nil
	}
	if err != nil {
		return domain.TableSchema{}, false, fmt.Errorf("failed to inspect schema: %w", err)
	}

	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return domain.TableSchema{}, false, fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	var columns []domain.Column
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return domain.TableSchema{}, false, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, domain.Column{Name: name, Type: ctype})
	}
	if err := rows.Err(); err != nil {
		return domain.TableSchema{}, false, err
	}

	var count int
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", table)).Scan(&count); err != nil {
		return domain.TableSchema{}, false, fmt.Errorf("failed to count rows: %w", err)
	}

	return domain.TableSchema{Table: table, Columns: columns, RowCount: count}, true, nil
}

// ExecuteSelect runs an already-validated SELECT statement on the
// read-only connection. Runtime database errors are wrapped as
// ErrQueryExecutionFailed and never retried.
func (s *SQLiteStore) ExecuteSelect(query string) (domain.TabularResult, error) {
	ro, err := s.readOnly()
	if err != nil {
		return domain.TabularResult{}, err
	}

	rows, err := ro.Query(query)
	if err != nil {
		return domain.TabularResult{}, fmt.Errorf("%w: %v", domain.ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return domain.TabularResult{}, fmt.Errorf("%w: %v", domain.ErrQueryExecutionFailed, err)
	}

	result := domain.TabularResult{SQL: query, Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.TabularResult{}, fmt.Errorf("%w: %v", domain.ErrQueryExecutionFailed, err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.TabularResult{}, fmt.Errorf("%w: %v", domain.ErrQueryExecutionFailed, err)
	}
	return result, nil
}

func (s *SQLiteStore) readOnly() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ro == nil {
		ro, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
		if err != nil {
			return nil, fmt.Errorf("failed to open read-only connection: %w", err)
		}
		s.ro = ro
	}
	return s.ro, nil
}

// Close closes both connections.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ro != nil {
		s.ro.Close()
		s.ro = nil
	}
	return s.db.Close()
}

func userTables(tx *sql.Tx) ([]string, error) {
	rows, err := tx.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// sanitizeIdentifier turns an arbitrary CSV header or filename into a
// safe sqlite identifier.
func sanitizeIdentifier(raw, fallback string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case r == '_' || r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return fallback
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "t_" + name
	}
	return name
}

func inferColumnType(rows [][]string, col int) string {
	sawValue := false
	allInt := true
	allReal := true

	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		sawValue = true
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			allReal = false
		}
	}

	switch {
	case !sawValue:
		return "TEXT"
	case allInt:
		return "INTEGER"
	case allReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}
