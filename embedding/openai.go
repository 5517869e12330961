package embedding

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hupe1980/multirag/blobstore"
	"github.com/hupe1980/multirag/distance"
)

// Compile-time check.
var _ Embedder = (*OpenAI)(nil)

// DefaultCaptionPrompt is the instruction sent to the vision model when
// deriving a figure caption for embedding.
const DefaultCaptionPrompt = "Elaborate the findings in the image concisely in a single paragraph. Do not add anything."

// OpenAIOptions contains configuration options for the OpenAI adapter.
type OpenAIOptions struct {
	// Model is the text embedding model.
	Model string

	// VisionModel is the chat model used to caption figures before they
	// are embedded through Model. Captioning keeps text and image vectors
	// in one comparable space.
	VisionModel string

	// CaptionPrompt is the instruction for figure captioning.
	CaptionPrompt string

	// MaxInputRunes bounds text inputs. Longer inputs are truncated
	// deterministically at a rune boundary.
	MaxInputRunes int

	// MaxImageBytes bounds image payloads. Oversized payloads are rejected
	// rather than resampled, so embeddings stay reproducible.
	MaxImageBytes int

	// BaseURL overrides the API endpoint for OpenAI-compatible providers.
	BaseURL string
}

// DefaultOpenAIOptions contains the default configuration for the adapter.
var DefaultOpenAIOptions = OpenAIOptions{
	Model:         string(openai.SmallEmbedding3),
	VisionModel:   "gpt-4o-mini",
	CaptionPrompt: DefaultCaptionPrompt,
	MaxInputRunes: 8192,
	MaxImageBytes: 20 << 20,
}

// OpenAI adapts an OpenAI-compatible provider to the Embedder interface.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
	dim    int
}

// NewOpenAI creates an adapter authenticated with apiKey.
func NewOpenAI(apiKey string, optFns ...func(o *OpenAIOptions)) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("embedding: api key must not be empty")
	}

	opts := DefaultOpenAIOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	dim := 1536 // text-embedding-3-small
	if opts.Model == string(openai.LargeEmbedding3) {
		dim = 3072
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		dim:    dim,
	}, nil
}

// EmbedText embeds a text passage via the embeddings endpoint.
func (e *OpenAI) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Op: "embed_text", Cause: errors.New("empty input")}
	}

	v, err := e.embed(ctx, TruncateText(text, e.opts.MaxInputRunes))
	if err != nil {
		return nil, &Error{Op: "embed_text", Cause: err}
	}
	return v, nil
}

// EmbedImage captions the image through the vision model and embeds the
// caption through the same text model used for passages and queries.
func (e *OpenAI) EmbedImage(ctx context.Context, blob blobstore.ImageBlob) ([]float32, error) {
	if len(blob.Data) == 0 {
		return nil, &Error{Op: "embed_image", Cause: errors.New("empty image payload")}
	}
	if e.opts.MaxImageBytes > 0 && len(blob.Data) > e.opts.MaxImageBytes {
		return nil, &Error{Op: "embed_image", Cause: fmt.Errorf("image payload %d bytes exceeds limit %d", len(blob.Data), e.opts.MaxImageBytes)}
	}

	mime := blob.MIME
	if mime == "" {
		mime = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(blob.Data))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.opts.VisionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: e.opts.CaptionPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return nil, &Error{Op: "embed_image", Cause: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &Error{Op: "embed_image", Cause: errors.New("vision model returned no caption")}
	}

	caption := TruncateText(resp.Choices[0].Message.Content, e.opts.MaxInputRunes)
	v, err := e.embed(ctx, caption)
	if err != nil {
		return nil, &Error{Op: "embed_image", Cause: err}
	}
	return v, nil
}

func (e *OpenAI) embed(ctx context.Context, input string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.opts.Model),
		Input: []string{input},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	raw := resp.Data[0].Embedding
	v := make([]float32, len(raw))
	for i := range raw {
		v[i] = float32(raw[i])
	}

	if len(v) != e.dim {
		return nil, fmt.Errorf("provider returned dimension %d, want %d", len(v), e.dim)
	}
	if !distance.NormalizeL2InPlace(v) {
		return nil, errors.New("provider returned zero vector")
	}
	return v, nil
}

// Dimension returns the fixed embedding dimensionality.
func (e *OpenAI) Dimension() int {
	return e.dim
}

// ModelInfo returns a human-readable model identifier.
func (e *OpenAI) ModelInfo() string {
	return "openai-" + e.opts.Model
}
