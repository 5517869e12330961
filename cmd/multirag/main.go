// Command multirag serves a multimodal PDF question answering API.
//
// It embeds both narrative text and figure captions into a single vector
// space, keeps the active document in an in-process flat index, and answers
// questions with an OpenAI chat model grounded on the retrieved context.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/multirag"
	"github.com/hupe1980/multirag/blobstore"
	minioblob "github.com/hupe1980/multirag/blobstore/minio"
	"github.com/hupe1980/multirag/bundle"
	"github.com/hupe1980/multirag/embedding"
	"github.com/hupe1980/multirag/generation"
	"github.com/hupe1980/multirag/pdfproc"
	"github.com/hupe1980/multirag/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "multirag:", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	var (
		addr      = flag.String("addr", envOr("MULTIRAG_ADDR", ":8000"), "listen address")
		blobKind  = flag.String("blobs", envOr("MULTIRAG_BLOBS", "memory"), "blob store backend: memory, local or minio")
		blobDir   = flag.String("blob-dir", envOr("MULTIRAG_BLOB_DIR", "./data/blobs"), "directory for the local blob store")
		authToken = flag.String("auth-token", os.Getenv("MULTIRAG_AUTH_TOKEN"), "bearer token required on requests (empty disables auth)")
		rps       = flag.Float64("embed-rps", envFloatOr("MULTIRAG_EMBED_RPS", 0), "embedding requests per second (0 disables rate limiting)")
		verbose   = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := multirag.NewJSONLogger(level)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return errors.New("OPENAI_API_KEY must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := newBlobStore(ctx, *blobKind, *blobDir)
	if err != nil {
		return err
	}

	var embedder embedding.Embedder

	embedder, err = embedding.NewOpenAI(apiKey, func(o *embedding.OpenAIOptions) {
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			o.BaseURL = base
		}
		if model := os.Getenv("MULTIRAG_EMBEDDING_MODEL"); model != "" {
			o.Model = model
		}
		if model := os.Getenv("MULTIRAG_VISION_MODEL"); model != "" {
			o.VisionModel = model
		}
	})
	if err != nil {
		return err
	}

	if *rps > 0 {
		embedder = embedding.NewRateLimited(embedder, *rps, int(*rps)+1)
	}

	engine, err := multirag.New(embedder, blobs, multirag.WithLogger(logger))
	if err != nil {
		return err
	}

	generator, err := generation.NewOpenAI(apiKey, func(o *generation.OpenAIOptions) {
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			o.BaseURL = base
		}
		if model := os.Getenv("MULTIRAG_CHAT_MODEL"); model != "" {
			o.Model = model
		}
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Deps{
		Engine:    engine,
		Parser:    pdfproc.NewPDFParser(nil),
		Splitter:  pdfproc.NewSplitter(),
		Blobs:     blobs,
		Assembler: bundle.New(blobs, func(o *bundle.Options) {
			o.Logger = logger.Logger
		}),
		Generator: generator,
	}, func(o *server.Options) {
		o.AuthToken = *authToken
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", *addr, "blobs", *blobKind)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.InfoContext(shutdownCtx, "shutting down")

	return httpServer.Shutdown(shutdownCtx)
}

func newBlobStore(ctx context.Context, kind, dir string) (blobstore.Store, error) {
	switch kind {
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "local":
		return blobstore.NewLocalStore(dir)
	case "minio":
		endpoint := os.Getenv("MINIO_ENDPOINT")
		if endpoint == "" {
			return nil, errors.New("MINIO_ENDPOINT must be set for the minio blob store")
		}

		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: os.Getenv("MINIO_SECURE") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}

		bucket := envOr("MINIO_BUCKET", "multirag")

		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("minio bucket check: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("minio make bucket: %w", err)
			}
		}

		return minioblob.NewStore(client, bucket, "figures"), nil
	default:
		return nil, fmt.Errorf("unknown blob store backend %q", kind)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
