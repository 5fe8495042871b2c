package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chembase-labs/chemsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/chembase-labs/chemsearch/internal/core/domain"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CompoundStore = (*Store)(nil)

// Store is the SQLite-backed primary compound store: the system of
// record for canonical rows, keyed by rowid with a unique constraint
// on cid.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.chemsearch/data/compounds.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".chemsearch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "compounds.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// unavailable classifies a database failure as a store outage,
// distinguishable from not-found by errors.Is.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}

const compoundColumns = `id, cid, name, iupac_name, formula, molecular_weight,
	inchi, inchi_key, smiles, description, image_url,
	synonyms, chemical_class, properties, is_processed, created_at, updated_at`

// GetByCID retrieves a compound by its external identifier.
func (s *Store) GetByCID(ctx context.Context, cid int64) (*domain.Compound, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+compoundColumns+" FROM compounds WHERE cid = ?", cid)
	return scanCompound(row)
}

// GetByID retrieves a compound by its surrogate key.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Compound, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+compoundColumns+" FROM compounds WHERE id = ?", id)
	return scanCompound(row)
}

// Create stores a compound. Idempotent at the CID level: when a row
// with the same CID exists the stored row is returned unchanged.
func (s *Store) Create(ctx context.Context, compound *domain.Compound) (*domain.Compound, error) {
	existing, err := s.GetByCID(ctx, compound.CID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	synonyms, classes, properties, err := marshalJSONColumns(compound)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO compounds (cid, name, iupac_name, formula, molecular_weight,
			inchi, inchi_key, smiles, description, image_url,
			synonyms, chemical_class, properties, is_processed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, compound.CID, compound.Name, compound.IUPACName, compound.Formula,
		nullFloat(compound.MolecularWeight), compound.InChI, compound.InChIKey,
		compound.SMILES, compound.Description, compound.ImageURL,
		synonyms, classes, properties, compound.IsProcessed, now, now)
	if err != nil {
		// Lost a race on the unique cid constraint: return the winner.
		if existing, getErr := s.GetByCID(ctx, compound.CID); getErr == nil {
			return existing, nil
		}
		return nil, unavailable("inserting compound", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, unavailable("reading insert id", err)
	}

	stored := *compound
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	return &stored, nil
}

// CreateBatch writes several compounds in one transaction. Rows whose
// CID already exists are skipped via INSERT OR IGNORE; callers that
// deduplicated upstream pay no per-row existence check. Returns the
// number of rows inserted.
func (s *Store) CreateBatch(ctx context.Context, compounds []*domain.Compound) (int, error) {
	if len(compounds) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO compounds (cid, name, iupac_name, formula, molecular_weight,
			inchi, inchi_key, smiles, description, image_url,
			synonyms, chemical_class, properties, is_processed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, unavailable("preparing statement", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := 0
	for _, compound := range compounds {
		synonyms, classes, properties, err := marshalJSONColumns(compound)
		if err != nil {
			return inserted, err
		}
		res, err := stmt.ExecContext(ctx, compound.CID, compound.Name, compound.IUPACName,
			compound.Formula, nullFloat(compound.MolecularWeight), compound.InChI,
			compound.InChIKey, compound.SMILES, compound.Description, compound.ImageURL,
			synonyms, classes, properties, compound.IsProcessed, now, now)
		if err != nil {
			return inserted, unavailable("inserting compound batch row", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable("committing transaction", err)
	}
	return inserted, nil
}

// List returns compounds in primary-key order.
func (s *Store) List(ctx context.Context, limit, offset int) ([]domain.Compound, error) {
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+compoundColumns+" FROM compounds ORDER BY id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, unavailable("querying compounds", err)
	}
	defer rows.Close()

	return collectCompounds(rows)
}

// Count returns the total number of stored compounds.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM compounds")
	if err := row.Scan(&count); err != nil {
		return 0, unavailable("counting compounds", err)
	}
	return count, nil
}

// MarkProcessed records a completed vector-store write for the compound.
func (s *Store) MarkProcessed(ctx context.Context, cid int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE compounds SET is_processed = 1, updated_at = ? WHERE cid = ?",
		time.Now().UTC(), cid)
	if err != nil {
		return unavailable("marking compound processed", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListUnprocessed returns compounds whose vector-store write is still
// outstanding, in primary-key order.
func (s *Store) ListUnprocessed(ctx context.Context, limit int) ([]domain.Compound, error) {
	if limit <= 0 {
		limit = domain.MaxLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+compoundColumns+" FROM compounds WHERE is_processed = 0 ORDER BY id LIMIT ?",
		limit)
	if err != nil {
		return nil, unavailable("querying unprocessed compounds", err)
	}
	defer rows.Close()

	return collectCompounds(rows)
}

// Search performs keyword search with filters, sorting and pagination.
// The substring match is case-insensitive and OR'd across name,
// description and formula; TotalResults counts the filtered set before
// pagination.
func (s *Store) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	where, args := buildPredicate(query)

	var total int
	countRow := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM compounds"+where, args...)
	if err := countRow.Scan(&total); err != nil {
		return nil, unavailable("counting search results", err)
	}

	stmt := "SELECT " + compoundColumns + " FROM compounds" + where + orderBy(query.Sort) +
		" LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, stmt, append(args, query.Limit, query.Offset())...)
	if err != nil {
		return nil, unavailable("querying search results", err)
	}
	defer rows.Close()

	compounds, err := collectCompounds(rows)
	if err != nil {
		return nil, err
	}

	results := make([]domain.CompoundSearchResult, 0, len(compounds))
	for i := range compounds {
		results = append(results, compounds[i].ToSearchResult())
	}

	return &domain.SearchResponse{
		Results:      results,
		TotalResults: total,
		Page:         query.Page,
		TotalPages:   domain.TotalPages(total, query.Limit),
		Query:        query.Query,
		SearchType:   domain.SearchTypeKeyword,
	}, nil
}

// buildPredicate renders the WHERE clause for a search query.
func buildPredicate(query domain.SearchQuery) (string, []any) {
	var clauses []string
	var args []any

	if q := strings.TrimSpace(query.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		clauses = append(clauses,
			"(lower(name) LIKE ? OR lower(description) LIKE ? OR lower(formula) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	if min, max, minInclusive, maxInclusive := query.MolecularWeight.Range(); min != nil || max != nil {
		if min != nil {
			op := ">"
			if minInclusive {
				op = ">="
			}
			clauses = append(clauses, "molecular_weight "+op+" ?")
			args = append(args, *min)
		}
		if max != nil {
			op := "<"
			if maxInclusive {
				op = "<="
			}
			clauses = append(clauses, "molecular_weight "+op+" ?")
			args = append(args, *max)
		}
	}

	if query.FiltersClass() {
		clauses = append(clauses,
			"EXISTS (SELECT 1 FROM json_each(compounds.chemical_class) WHERE json_each.value = ?)")
		args = append(args, query.ChemicalClass)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// orderBy renders the sort clause. Unknown weights sort last; name
// ordering ignores case; relevance for keyword search is primary-key
// order. The trailing id keeps ties in insertion order.
func orderBy(sortKey domain.SortKey) string {
	switch sortKey {
	case domain.SortMolecularWeight:
		return " ORDER BY molecular_weight IS NULL, molecular_weight, id"
	case domain.SortName:
		return " ORDER BY name COLLATE NOCASE, id"
	default:
		return " ORDER BY id"
	}
}

// marshalJSONColumns renders the array- and map-valued fields for storage.
func marshalJSONColumns(compound *domain.Compound) (synonyms, classes, properties string, err error) {
	b, err := json.Marshal(emptyIfNil(compound.Synonyms))
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling synonyms: %w", err)
	}
	synonyms = string(b)

	b, err = json.Marshal(emptyIfNil(compound.ChemicalClass))
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling chemical class: %w", err)
	}
	classes = string(b)

	props := compound.Properties
	if props == nil {
		props = map[string]any{}
	}
	b, err = json.Marshal(props)
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling properties: %w", err)
	}
	properties = string(b)
	return synonyms, classes, properties, nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCompound scans a single compound row.
func scanCompound(row rowScanner) (*domain.Compound, error) {
	var c domain.Compound
	var weight sql.NullFloat64
	var synonyms, classes, properties string
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&c.ID, &c.CID, &c.Name, &c.IUPACName, &c.Formula, &weight,
		&c.InChI, &c.InChIKey, &c.SMILES, &c.Description, &c.ImageURL,
		&synonyms, &classes, &properties, &c.IsProcessed, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, unavailable("scanning compound", err)
	}

	if weight.Valid {
		c.MolecularWeight = &weight.Float64
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	if err := json.Unmarshal([]byte(synonyms), &c.Synonyms); err != nil {
		return nil, fmt.Errorf("unmarshalling synonyms: %w", err)
	}
	if err := json.Unmarshal([]byte(classes), &c.ChemicalClass); err != nil {
		return nil, fmt.Errorf("unmarshalling chemical class: %w", err)
	}
	if err := json.Unmarshal([]byte(properties), &c.Properties); err != nil {
		return nil, fmt.Errorf("unmarshalling properties: %w", err)
	}
	if len(c.Synonyms) == 0 {
		c.Synonyms = nil
	}
	if len(c.ChemicalClass) == 0 {
		c.ChemicalClass = nil
	}
	if len(c.Properties) == 0 {
		c.Properties = nil
	}
	return &c, nil
}

func collectCompounds(rows *sql.Rows) ([]domain.Compound, error) {
	var compounds []domain.Compound //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanCompound(rows)
		if err != nil {
			return nil, err
		}
		compounds = append(compounds, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating compounds", err)
	}
	return compounds, nil
}
