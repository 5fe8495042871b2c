package cli

import (
	"fmt"
	"sync"

	configfile "github.com/chembase-labs/chemsearch/internal/adapters/driven/config/file"
	"github.com/chembase-labs/chemsearch/internal/adapters/driven/embedding/ollama"
	"github.com/chembase-labs/chemsearch/internal/adapters/driven/embedding/stub"
	"github.com/chembase-labs/chemsearch/internal/adapters/driven/pubchem"
	"github.com/chembase-labs/chemsearch/internal/adapters/driven/storage/sqlite"
	"github.com/chembase-labs/chemsearch/internal/adapters/driven/vector/sqlitevec"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
	"github.com/chembase-labs/chemsearch/internal/core/services"
	"github.com/chembase-labs/chemsearch/internal/logger"
)

// Backend client handles are process-wide singletons, lazily built on
// first use behind sync.Once so concurrent command paths cannot race
// initialisation.
var (
	wireOnce sync.Once
	wireErr  error

	configStore     *configfile.ConfigStore
	primaryStore    *sqlite.Store
	vectorStore     *sqlitevec.Store
	compoundService *services.CompoundService
	ingestService   *services.IngestService
)

// wire builds the backend singletons and core services.
func wire() error {
	wireOnce.Do(func() {
		configStore, wireErr = configfile.NewConfigStore(flagConfigDir)
		if wireErr != nil {
			wireErr = fmt.Errorf("open config: %w", wireErr)
			return
		}

		dataDir := configStore.GetString("data.dir")

		primaryStore, wireErr = sqlite.NewStore(dataDir)
		if wireErr != nil {
			wireErr = fmt.Errorf("open compound store: %w", wireErr)
			return
		}

		embedder := buildEmbedder(configStore)
		vectorStore, wireErr = sqlitevec.NewStore(dataDir, embedder)
		if wireErr != nil {
			// Degraded-mode startup: search falls back to keyword and
			// ingestion records partial rows for later reconciliation.
			logger.Warn("Vector store unavailable, starting degraded: %v", wireErr)
			wireErr = nil
		}

		fetcher := pubchem.NewClient(pubchem.Config{})
		coordinator := services.NewSearchCoordinator(primaryStore, vectorStoreOrNil())
		ingestService = services.NewIngestService(
			primaryStore, vectorStoreOrNil(), fetcher, configStore.GetInt("ingest.batch_size"))
		compoundService = services.NewCompoundService(
			primaryStore, coordinator, ingestService,
			configStore.GetString("seed.dir"), configStore.GetInt("seed.limit"))
	})
	return wireErr
}

// vectorStoreOrNil returns the vector store as its port type, keeping
// the typed-nil pitfall out of the services layer.
func vectorStoreOrNil() driven.VectorStore {
	if vectorStore == nil {
		return unavailableVectorStore{}
	}
	return vectorStore
}

// buildEmbedder selects the embedding provider from configuration:
// an Ollama endpoint when configured, the deterministic stub when
// explicitly requested, else none (fallback vectors only).
func buildEmbedder(cfg driven.ConfigStore) driven.EmbeddingService {
	switch cfg.GetString("embedding.provider") {
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	case "stub":
		return stub.New(cfg.GetInt("embedding.dimensions"))
	default:
		return nil
	}
}

// closeBackends releases the singleton handles at process exit.
func closeBackends() {
	if primaryStore != nil {
		_ = primaryStore.Close()
	}
	if vectorStore != nil {
		_ = vectorStore.Close()
	}
}
