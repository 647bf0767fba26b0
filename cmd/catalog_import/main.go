package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/mba-counselor/internal/app"
	"github.com/yungbote/mba-counselor/internal/ingest"
	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/openai"
	"github.com/yungbote/mba-counselor/internal/platform/shutdown"
)

func main() {
	var (
		path        string
		dryRun      bool
		chunkSize   int
		overlap     int
		batchSize   int
		concurrency int
	)
	flag.StringVar(&path, "catalog", "catalog.yaml", "path to the program catalog YAML")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the catalog and print what would be imported")
	flag.IntVar(&chunkSize, "chunk-size", ingest.DefaultChunkSize, "chunk size in characters")
	flag.IntVar(&overlap, "chunk-overlap", ingest.DefaultChunkOverlap, "overlap between chunks in characters")
	flag.IntVar(&batchSize, "batch-size", openai.DefaultEmbedBatchSize, "texts per embedding request")
	flag.IntVar(&concurrency, "concurrency", 4, "embedding requests in flight")
	flag.Parse()

	cat, err := ingest.LoadCatalog(path)
	if err != nil {
		fmt.Printf("load catalog: %v\n", err)
		os.Exit(1)
	}
	if dryRun {
		for _, p := range cat.Programs {
			fmt.Printf("[dry-run] %s (%d excerpts)\n", p.Name, len(p.Excerpts))
		}
		fmt.Printf("done; programs=%d\n", len(cat.Programs))
		return
	}

	cfg := app.LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if observability.Enabled() {
		observability.Init(log)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	application, err := app.New(ctx, log, cfg)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	importer := ingest.NewImporter(ingest.ImporterDeps{
		DB:           application.DB,
		Log:          log,
		Programs:     application.Repos.Program,
		Contents:     application.Repos.Content,
		Embed:        application.Clients.LLM,
		Vectors:      application.Clients.VectorStore,
		Namespace:    cfg.VectorNamespace,
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
		Batch:        openai.BatchOptions{BatchSize: batchSize, Concurrency: concurrency},
	})
	rep, err := importer.Import(ctx, cat)
	if err != nil {
		fmt.Printf("import failed after %d programs: %v\n", rep.Programs, err)
		os.Exit(1)
	}
	fmt.Printf("done; programs=%d chunks=%d zero_vectors=%d vectors=%d reviews=%d\n",
		rep.Programs, rep.Chunks, rep.ZeroVectors, rep.Vectors, rep.ReviewsSaved)
}
