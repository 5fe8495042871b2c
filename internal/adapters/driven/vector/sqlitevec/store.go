// Package sqlitevec provides the vector search adapter: a denormalised,
// self-contained compound projection in its own SQLite file with an
// attached embedding per row.
//
// Nearest-neighbour ranking is exact cosine over the filtered candidate
// set. Similarity scores are reported on a 0-1 scale and only when a
// genuine nearest-neighbour query ran; filter-only results carry none.
// The copy may lag or diverge from the primary store and is never the
// system of record.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chembase-labs/chemsearch/internal/core/domain"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
	"github.com/chembase-labs/chemsearch/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// FallbackDimensions is the vector size used when no embedding provider
// is configured at all.
const FallbackDimensions = 384

// modelFallback marks rows whose vector came from the deterministic
// CID-seeded fallback instead of a live embedder.
const modelFallback = "fallback"

// Store is the SQLite-backed vector store.
type Store struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService // nil means fallback vectors only
}

// NewStore creates the vector store at the specified data directory.
// If dataDir is empty, defaults to ~/.chemsearch/data/vectors.db.
// The embedder is optional: without one, rows get deterministic
// CID-seeded vectors and search degrades to structured filtering.
func NewStore(dataDir string, embedder driven.EmbeddingService) (*Store, error) {
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

	dbPath := filepath.Join(dataDir, "vectors.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		embedder: embedder,
	}

	if err := s.provision(); err != nil {
		db.Close()
		return nil, fmt.Errorf("provisioning vector schema: %w", err)
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

// provision creates the flattened collection if absent. Idempotent.
func (s *Store) provision() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS compound_vectors (
			cid INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			iupac_name TEXT NOT NULL DEFAULT '',
			formula TEXT NOT NULL DEFAULT '',
			molecular_weight REAL,
			inchi_key TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			chemical_class TEXT NOT NULL DEFAULT '[]',
			embedding BLOB,
			embedding_model TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL
		)
	`)
	return err
}

// unavailable classifies a database failure as a store outage.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}

// Upsert writes or overwrites the denormalised projection, attaching a
// vector. With no live embedder (or a failing one) a deterministic
// CID-seeded vector is attached instead; the row is marked so the
// reduced-quality path stays observable.
func (s *Store) Upsert(ctx context.Context, compound *domain.Compound) error {
	vector, model := s.vectorFor(ctx, compound)

	classes, err := json.Marshal(compound.ChemicalClass)
	if err != nil {
		return fmt.Errorf("marshalling chemical class: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO compound_vectors (cid, name, iupac_name, formula, molecular_weight,
			inchi_key, description, image_url, chemical_class,
			embedding, embedding_model, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cid) DO UPDATE SET
			name = excluded.name,
			iupac_name = excluded.iupac_name,
			formula = excluded.formula,
			molecular_weight = excluded.molecular_weight,
			inchi_key = excluded.inchi_key,
			description = excluded.description,
			image_url = excluded.image_url,
			chemical_class = excluded.chemical_class,
			embedding = excluded.embedding,
			embedding_model = excluded.embedding_model,
			updated_at = excluded.updated_at
	`, compound.CID, compound.Name, compound.IUPACName, compound.Formula,
		nullFloat(compound.MolecularWeight), compound.InChIKey, compound.Description,
		compound.ImageURL, string(classes),
		float32SliceToBytes(vector), model, time.Now().UTC())
	if err != nil {
		return unavailable("upserting compound vector", err)
	}
	return nil
}

// vectorFor produces the embedding for a compound, falling back to the
// deterministic CID-seeded vector when no embedder answers.
func (s *Store) vectorFor(ctx context.Context, compound *domain.Compound) ([]float32, string) {
	if s.embedder != nil {
		vector, err := s.embedder.Embed(ctx, compound.EmbeddingText())
		if err == nil {
			return vector, s.embedder.ModelName()
		}
		logger.Warn("Embedding failed for CID %d, using fallback vector: %v", compound.CID, err)
		return fallbackVector(compound.CID, s.embedder.Dimensions()), modelFallback
	}
	logger.Debug("No embedder configured, using fallback vector for CID %d", compound.CID)
	return fallbackVector(compound.CID, FallbackDimensions), modelFallback
}

// GetByCID retrieves the denormalised copy of a compound.
func (s *Store) GetByCID(ctx context.Context, cid int64) (*domain.Compound, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT cid, name, iupac_name, formula, molecular_weight,
			inchi_key, description, image_url, chemical_class
		FROM compound_vectors WHERE cid = ?
	`, cid)

	c, err := scanProjection(row)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Search performs semantic retrieval with structured filters. With a
// live embedder and a non-empty query, candidates are ranked by cosine
// similarity; otherwise the filtered set is returned in CID order with
// no ranking guarantee and no similarity scores.
func (s *Store) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	where, args := buildPredicate(query)

	rows, err := s.db.QueryContext(ctx, `
		SELECT cid, name, iupac_name, formula, molecular_weight,
			inchi_key, description, image_url, chemical_class, embedding
		FROM compound_vectors`+where+" ORDER BY cid", args...)
	if err != nil {
		return nil, unavailable("querying compound vectors", err)
	}
	defer rows.Close()

	type candidate struct {
		compound domain.Compound
		vector   []float32
	}
	var candidates []candidate
	for rows.Next() {
		var c domain.Compound
		var weight sql.NullFloat64
		var classes string
		var blob []byte
		if err := rows.Scan(&c.CID, &c.Name, &c.IUPACName, &c.Formula, &weight,
			&c.InChIKey, &c.Description, &c.ImageURL, &classes, &blob); err != nil {
			return nil, unavailable("scanning compound vector", err)
		}
		if weight.Valid {
			w := weight.Float64
			c.MolecularWeight = &w
		}
		if err := json.Unmarshal([]byte(classes), &c.ChemicalClass); err != nil {
			return nil, fmt.Errorf("unmarshalling chemical class: %w", err)
		}
		candidates = append(candidates, candidate{compound: c, vector: bytesToFloat32Slice(blob)})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating compound vectors", err)
	}

	results := make([]domain.CompoundSearchResult, 0, len(candidates))

	queryVector := s.queryVector(ctx, query.Query)
	if queryVector != nil {
		// Genuine nearest-neighbour ranking.
		for i := range candidates {
			result := candidates[i].compound.ToSearchResult()
			similarity := cosineSimilarity(queryVector, candidates[i].vector)
			result.Similarity = &similarity
			results = append(results, result)
		}
		sort.SliceStable(results, func(i, j int) bool {
			return *results[i].Similarity > *results[j].Similarity
		})
	} else {
		// Structured filtering only; no ranking guarantee.
		for i := range candidates {
			results = append(results, candidates[i].compound.ToSearchResult())
		}
	}

	total := len(results)
	results = paginate(results, query.Offset(), query.Limit)

	return &domain.SearchResponse{
		Results:      results,
		TotalResults: total,
		Page:         query.Page,
		TotalPages:   domain.TotalPages(total, query.Limit),
		Query:        query.Query,
		SearchType:   domain.SearchTypeSemantic,
	}, nil
}

// queryVector embeds the search text, or returns nil when the semantic
// ranking path is not available for this request.
func (s *Store) queryVector(ctx context.Context, text string) []float32 {
	if s.embedder == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		logger.Warn("Query embedding failed, returning filter-only results: %v", err)
		return nil
	}
	return vector
}

func paginate(results []domain.CompoundSearchResult, offset, limit int) []domain.CompoundSearchResult {
	if offset >= len(results) {
		return []domain.CompoundSearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

// buildPredicate renders the WHERE clause for the structured filters.
func buildPredicate(query domain.SearchQuery) (string, []any) {
	var clauses []string
	var args []any

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
			"EXISTS (SELECT 1 FROM json_each(compound_vectors.chemical_class) WHERE json_each.value = ?)")
		args = append(args, query.ChemicalClass)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanProjection(row *sql.Row) (*domain.Compound, error) {
	var c domain.Compound
	var weight sql.NullFloat64
	var classes string
	err := row.Scan(&c.CID, &c.Name, &c.IUPACName, &c.Formula, &weight,
		&c.InChIKey, &c.Description, &c.ImageURL, &classes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, unavailable("scanning compound vector", err)
	}
	if weight.Valid {
		w := weight.Float64
		c.MolecularWeight = &w
	}
	if err := json.Unmarshal([]byte(classes), &c.ChemicalClass); err != nil {
		return nil, fmt.Errorf("unmarshalling chemical class: %w", err)
	}
	if len(c.ChemicalClass) == 0 {
		c.ChemicalClass = nil
	}
	return &c, nil
}

// fallbackVector derives a deterministic unit vector from the CID so
// the system stays testable without a live embedding provider. The
// resulting "semantic" ranking is not truly semantic.
func fallbackVector(cid int64, dimensions int) []float32 {
	rng := rand.New(rand.NewSource(cid)) //nolint:gosec // deterministic placeholder, not crypto
	vector := make([]float32, dimensions)
	var norm float64
	for i := range vector {
		v := rng.Float64()*2 - 1
		vector[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vector
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}

// cosineSimilarity returns cosine similarity mapped onto a 0-1 scale.
// Mismatched or empty vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
