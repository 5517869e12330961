// Package generation is the boundary to the external answer-generation
// provider. It consumes the assembled context bundle and the user question
// and returns the generated answer text; the response content is passed
// through unvalidated.
package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hupe1980/multirag/bundle"
)

// Generator produces an answer from a question and its retrieved context.
type Generator interface {
	Generate(ctx context.Context, question string, b bundle.Bundle) (string, error)
}

// Compile-time check.
var _ Generator = (*OpenAI)(nil)

// OpenAIOptions contains configuration options for the OpenAI generator.
type OpenAIOptions struct {
	// Model is the chat model answering the question.
	Model string

	// BaseURL overrides the API endpoint for OpenAI-compatible providers.
	BaseURL string
}

// DefaultOpenAIOptions contains the default configuration for the generator.
var DefaultOpenAIOptions = OpenAIOptions{
	Model: openai.GPT4oMini,
}

// OpenAI generates answers through an OpenAI-compatible chat completion
// endpoint, interleaving text segments and image payloads into one
// multimodal user message.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAI creates a generator authenticated with apiKey.
func NewOpenAI(apiKey string, optFns ...func(o *OpenAIOptions)) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("generation: api key must not be empty")
	}

	opts := DefaultOpenAIOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}, nil
}

// Generate builds the multimodal message and returns the model's answer.
func (g *OpenAI) Generate(ctx context.Context, question string, b bundle.Bundle) (string, error) {
	parts := BuildContent(question, b)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("generation: provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildContent assembles the ordered multimodal content list: the question,
// the text context, then each image preceded by its provenance label, and a
// closing instruction.
func BuildContent(question string, b bundle.Bundle) []openai.ChatMessagePart {
	var parts []openai.ChatMessagePart

	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: question,
	})

	if txt := b.JoinedText(); txt != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: txt,
		})
	}

	for _, img := range b.Images {
		mime := img.MIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts,
			openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: "\n" + img.Label + "\n",
			},
			openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data)),
				},
			},
		)
	}

	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: "\n\nPlease answer the question based on the provided text and images.",
	})

	return parts
}
