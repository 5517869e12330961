// Package server exposes the retrieval core over a thin HTTP surface:
// upload a PDF, ask questions against it. Status mapping follows the error
// taxonomy: 400 for user-fixable input, 401 for failed auth, 500 for
// provider and internal faults.
package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/multirag"
	"github.com/hupe1980/multirag/blobstore"
	"github.com/hupe1980/multirag/bundle"
	"github.com/hupe1980/multirag/generation"
	"github.com/hupe1980/multirag/pdfproc"
)

// Deps are the collaborators the server wires together.
type Deps struct {
	Engine    *multirag.Engine
	Parser    pdfproc.Parser
	Splitter  *pdfproc.Splitter
	Blobs     blobstore.Store
	Assembler *bundle.Assembler
	Generator generation.Generator
}

// Options contains configuration options for the server.
type Options struct {
	// MaxUploadBytes bounds the multipart upload size.
	MaxUploadBytes int64

	// AuthToken, when non-empty, requires `Authorization: Bearer <token>`
	// on every mutating or querying request.
	AuthToken string

	// K is the neighbor count per query.
	K int

	// Logger receives request logs. Nil disables logging.
	Logger *multirag.Logger
}

// DefaultOptions contains the default configuration for the server.
var DefaultOptions = Options{
	MaxUploadBytes: 50 << 20,
	K:              multirag.DefaultK,
}

// Server handles the upload and query endpoints.
type Server struct {
	deps Deps
	opts Options
}

// New creates a server around the given collaborators.
func New(deps Deps, optFns ...func(o *Options)) (*Server, error) {
	if deps.Engine == nil || deps.Parser == nil || deps.Blobs == nil || deps.Assembler == nil {
		return nil, errors.New("server: engine, parser, blobs and assembler are required")
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultOptions.MaxUploadBytes
	}
	if opts.K <= 0 {
		opts.K = DefaultOptions.K
	}
	if opts.Logger == nil {
		opts.Logger = multirag.NoopLogger()
	}

	return &Server{deps: deps, opts: opts}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHome)
	mux.HandleFunc("POST /uploadfile", s.withAuth(s.handleUpload))
	mux.HandleFunc("POST /query", s.withAuth(s.handleQuery))
	return mux
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Response      string   `json:"response"`
	Images        []string `json:"images,omitempty"`
	TextContexts  []string `json:"text_contexts,omitempty"`
	ImageContexts []string `json:"image_contexts,omitempty"`
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Multimodal RAG Application"})
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AuthToken != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != s.opts.AuthToken {
				writeDetail(w, http.StatusUnauthorized, "Invalid or missing credentials.")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := uuid.NewString()
	w.Header().Set("X-Request-ID", reqID)
	log := s.opts.Logger.With("request_id", reqID, "endpoint", "uploadfile")

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed multipart upload.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Missing file field.")
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeDetail(w, http.StatusBadRequest, "Only PDF files are allowed.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to read upload.")
		return
	}

	elements, err := s.deps.Parser.Parse(ctx, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.ErrorContext(ctx, "pdf parse failed", "filename", header.Filename, "error", err)
		writeDetail(w, http.StatusBadRequest, "Could not parse PDF document.")
		return
	}

	// Single active document: stale figure payloads go before the new
	// document's blobs and chunks come in.
	if err := s.deps.Blobs.Clear(ctx); err != nil {
		log.ErrorContext(ctx, "blob clear failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	chunks, err := pdfproc.BuildChunks(ctx, elements, s.deps.Splitter, s.deps.Blobs)
	if err != nil {
		log.ErrorContext(ctx, "chunk build failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if len(chunks) == 0 {
		writeDetail(w, http.StatusBadRequest, "No content extracted from PDF.")
		return
	}

	if err := s.deps.Engine.Ingest(ctx, chunks); err != nil {
		log.ErrorContext(ctx, "ingest failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to index document.")
		return
	}

	log.InfoContext(ctx, "document ingested", "filename", header.Filename, "chunks", len(chunks))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("File (%s) uploaded successfully", header.Filename),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := uuid.NewString()
	w.Header().Set("X-Request-ID", reqID)
	log := s.opts.Logger.With("request_id", reqID, "endpoint", "query")

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	result, err := s.deps.Engine.Query(ctx, req.Question, s.opts.K)
	if err != nil {
		if multirag.IsUserError(err) {
			writeDetail(w, http.StatusBadRequest, userErrorDetail(err))
			return
		}

		log.ErrorContext(ctx, "query failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")

		return
	}

	b, err := s.deps.Assembler.Assemble(ctx, result)
	if err != nil {
		log.ErrorContext(ctx, "context assembly failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	resp := queryResponse{}
	if txt := b.JoinedText(); txt != "" {
		resp.TextContexts = []string{txt}
	}
	for _, img := range b.Images {
		resp.Images = append(resp.Images, img.ID)
		resp.ImageContexts = append(resp.ImageContexts, base64.StdEncoding.EncodeToString(img.Data))
	}

	if s.deps.Generator != nil {
		answer, err := s.deps.Generator.Generate(ctx, req.Question, b)
		if err != nil {
			log.ErrorContext(ctx, "generation failed", "error", err)
			writeDetail(w, http.StatusInternalServerError, "Answer generation failed.")
			return
		}
		resp.Response = answer
	}

	log.DebugContext(ctx, "query answered", "results", len(result), "images", len(b.Images))
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func userErrorDetail(err error) string {
	switch {
	case errors.Is(err, multirag.ErrEmptyQuery):
		return "Question must not be empty."
	case errors.Is(err, multirag.ErrNotInitialized):
		return "No document has been uploaded yet."
	default:
		return err.Error()
	}
}
