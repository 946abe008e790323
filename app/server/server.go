package server

import (
	"context"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"

	"docanalyzer/app/agent"
	"docanalyzer/app/api"
	"docanalyzer/config"
	"docanalyzer/extract"
	"docanalyzer/logger"
	"docanalyzer/model"
	"docanalyzer/pipeline"
	"docanalyzer/store"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    100 * 1024 * 1024,
}

type Server struct {
	cfg config.Config
	log *logger.Logger

	app       *fiber.App
	meta      *store.MongoStore
	vectors   *store.PgVectorIndex
	processor *pipeline.Processor
}

func NewServer(cfg config.Config, log *logger.Logger) *Server {
	return &Server{
		cfg: cfg,
		log: log,
	}
}

// Run wires the stores, the pipeline and the HTTP routes, then blocks
// on the listener.
func (s *Server) Run() error {
	ctx := context.Background()
	cfg := s.cfg

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	meta, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return fmt.Errorf("failed to connect to metadata store: %w", err)
	}
	s.meta = meta
	if err := meta.Init(ctx); err != nil {
		return fmt.Errorf("failed to init metadata store: %w", err)
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.PGHost, cfg.PGPort, cfg.PGUser, cfg.PGPass, cfg.PGDBName)
	vectors, err := store.NewPgVectorIndex(ctx, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to vector index: %w", err)
	}
	s.vectors = vectors
	if err := vectors.EnsureIndex(ctx, cfg.ChildIndexName, cfg.EmbedDim, "cosine"); err != nil {
		return fmt.Errorf("failed to ensure vector index: %w", err)
	}

	embedder := model.DefaultEmbedder(cfg.EmbedURL, cfg.EmbedModel, cfg.EmbedDim)
	llm := agent.New(cfg.LLMURL, cfg.LLMModel, cfg.LLMFormatModel, s.log)
	extractor := extract.New(cfg.OCRURL)

	processor, err := pipeline.NewProcessor(pipeline.ProcessorConfig{
		IndexName:          cfg.ChildIndexName,
		EmbedDim:           cfg.EmbedDim,
		ParentChunkSize:    cfg.ParentChunkSize,
		ParentChunkOverlap: cfg.ParentChunkOverlap,
		ChildChunkSize:     cfg.ChildChunkSize,
		ChildChunkOverlap:  cfg.ChildChunkOverlap,
		Workers:            cfg.Workers,
	}, extractor, llm, embedder, vectors, meta, s.log)
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}
	s.processor = processor

	retriever := pipeline.NewRetriever(cfg.ChildIndexName, cfg.TopK, llm, embedder, vectors, meta, s.log)
	summarizer := pipeline.NewSummarizer(llm, meta, s.log)

	var (
		app              = fiber.New(fiberConfig)
		checkHandler     = api.NewCheckHandler()
		documentHandler  = api.NewDocumentHandler(meta, vectors, processor, cfg.UploadDir, cfg.ChildIndexName, s.log)
		queryHandler     = api.NewQueryHandler(retriever)
		summarizeHandler = api.NewSummarizeHandler(summarizer)
		check            = app.Group("/check")
		apiv1            = app.Group("/api/v1")
	)
	s.app = app

	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/documents", documentHandler.HandleUpload)
	apiv1.Get("/documents", documentHandler.HandleList)
	apiv1.Get("/documents/:id/status", documentHandler.HandleStatus)
	apiv1.Delete("/documents/:id", documentHandler.HandleDelete)

	apiv1.Post("/query", queryHandler.HandleQuery)

	apiv1.Post("/summarize/text", summarizeHandler.HandleSummarizeText)
	apiv1.Post("/summarize/:id", summarizeHandler.HandleSummarizeDocument)

	s.log.Info("server starting", "addr", cfg.ServerAddr)
	return app.Listen(cfg.ServerAddr)
}

// Stop shuts the listener down and releases the pipeline and stores.
// In-flight pipeline runs are abandoned; their documents stay in the
// processing state and can be re-uploaded.
func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.log.Error("failed to shut down listener", "error", err)
		}
	}
	if s.processor != nil {
		s.processor.Close()
	}
	if s.vectors != nil {
		_ = s.vectors.Close()
	}
	if s.meta != nil {
		if err := s.meta.Close(context.Background()); err != nil {
			s.log.Error("failed to close metadata store", "error", err)
		}
	}
	s.log.Info("server stopped")
}
