package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	configfile "github.com/aegislabs/aegis-cli/internal/adapters/driven/config/file"
	"github.com/aegislabs/aegis-cli/internal/adapters/driven/cwe"
	ollamaembed "github.com/aegislabs/aegis-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/aegislabs/aegis-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/aegislabs/aegis-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/aegislabs/aegis-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/aegislabs/aegis-cli/internal/adapters/driven/llm/openai"
	"github.com/aegislabs/aegis-cli/internal/adapters/driven/osidb"
	"github.com/aegislabs/aegis-cli/internal/adapters/driven/storage/memory"
	"github.com/aegislabs/aegis-cli/internal/adapters/driven/storage/postgres"
	"github.com/aegislabs/aegis-cli/internal/adapters/driven/storage/sqlite"
	"github.com/aegislabs/aegis-cli/internal/adapters/driving/cli"
	"github.com/aegislabs/aegis-cli/internal/chunker"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/core/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Optional .env for local development; real deployments use the
	// config file or AEGIS_* environment variables.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building vector store: %w", err)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("initialising vector store: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("building embedding client: %w", err)
	}
	llm, err := buildLLM(cfg)
	if err != nil {
		return fmt.Errorf("building LLM client: %w", err)
	}
	if llm != nil {
		defer llm.Close()
	}

	splitter := buildSplitter(cfg)
	knowledge := services.NewKnowledgeService(store, embedder, llm, splitter, services.RetrievalDefaults{
		TopKDocuments:   cfg.GetInt("rag.top_k_documents"),
		TopKFacts:       cfg.GetInt("rag.top_k_facts"),
		SimilarityFloor: cfg.GetFloat("rag.similarity_floor"),
	})

	flaws, err := buildFlawSource(cfg)
	if err != nil {
		return fmt.Errorf("building vulnerability database client: %w", err)
	}

	catalog, err := cwe.NewCatalog(cwe.Config{})
	if err != nil {
		return fmt.Errorf("building CWE catalog: %w", err)
	}

	analysis := services.NewAnalysisService(flaws, catalog, llm)

	cli.SetVersion(version)
	cli.Configure(cli.Services{
		Knowledge: knowledge,
		Analysis:  analysis,
		Config:    cfg,
	})

	return cli.ExecuteContext(ctx)
}

func buildStore(ctx context.Context, cfg driven.ConfigStore) (driven.VectorStore, error) {
	provider := cfg.GetString("storage.provider")
	switch provider {
	case "", "sqlite":
		return sqlite.NewStore(cfg.GetString("storage.data_dir"))
	case "postgres":
		connString := cfg.GetString("storage.connection_string")
		if connString == "" {
			return nil, fmt.Errorf("storage.connection_string is required for postgres")
		}
		return postgres.NewStore(ctx, connString, embeddingDimensions(cfg))
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", provider)
	}
}

func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	switch provider {
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  cfg.GetString("embedding.api_key"),
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})
	case "", "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

func buildLLM(cfg driven.ConfigStore) (driven.LLMService, error) {
	provider := cfg.GetString("llm.provider")
	switch provider {
	case "openai":
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.GetString("llm.api_key"),
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
	case "anthropic":
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  cfg.GetString("llm.api_key"),
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
	case "", "ollama":
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// buildFlawSource returns nil when no vulnerability database is
// configured; the analysis commands then report it as unavailable.
func buildFlawSource(cfg driven.ConfigStore) (driven.FlawSource, error) {
	baseURL := cfg.GetString("osidb.base_url")
	if baseURL == "" {
		return nil, nil
	}

	client, err := osidb.NewClient(osidb.Config{
		BaseURL:           baseURL,
		Token:             cfg.GetString("osidb.token"),
		IncludeEmbargoed:  cfg.GetBool("osidb.include_embargoed"),
		RequestsPerSecond: cfg.GetFloat("osidb.requests_per_second"),
		Timeout:           time.Duration(cfg.GetInt("osidb.timeout_seconds")) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildSplitter(cfg driven.ConfigStore) *chunker.Splitter {
	var opts []chunker.Option
	if size := cfg.GetInt("rag.chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap := cfg.GetInt("rag.chunk_overlap"); overlap > 0 {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...)
}

func embeddingDimensions(cfg driven.ConfigStore) int {
	if d := cfg.GetInt("embedding.dimensions"); d > 0 {
		return d
	}
	return ollamaembed.DefaultDimensions
}
