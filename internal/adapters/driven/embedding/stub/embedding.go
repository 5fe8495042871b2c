// Package stub provides a deterministic embedding service for tests
// and embedder-less deployments. Vectors are derived only from the
// input text, so equal texts always embed identically; the resulting
// similarity ranking is repeatable but not semantic.
package stub

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions matches the smallest common sentence-embedding
// size. Configure the stub to the live provider's dimensionality when
// both run against the same vector store.
const DefaultDimensions = 384

// EmbeddingService is the deterministic stub embedder.
type EmbeddingService struct {
	dimensions int
}

// New creates a stub embedding service. dimensions <= 0 selects
// DefaultDimensions.
func New(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed derives a unit vector from a hash of the text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // deterministic stub, not crypto

	vector := make([]float32, s.dimensions)
	var norm float64
	for i := range vector {
		v := rng.Float64()*2 - 1
		vector[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}
	return vector, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName identifies the stub.
func (s *EmbeddingService) ModelName() string {
	return "stub"
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
