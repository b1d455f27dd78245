package app

import (
	"context"
	"log/slog"
	"strings"
)

// TextGenerator is the language-model provider surface the engine wraps.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	StreamComplete(ctx context.Context, prompt string, onChunk func(chunk string) error) (string, error)
}

// GenerationResult is a split model response. On a provider fault SQL holds a
// readable error comment instead; the chat contract promises a response, so
// provider errors never escape the engine.
type GenerationResult struct {
	SQL         string
	Explanation string
}

// GenerationEngine runs the model and splits its response on
// ResponseDelimiter.
type GenerationEngine struct {
	generator TextGenerator
	logger    *slog.Logger
}

func NewGenerationEngine(generator TextGenerator, logger *slog.Logger) *GenerationEngine {
	return &GenerationEngine{
		generator: generator,
		logger:    logger,
	}
}

// Generate waits for the whole response. When the delimiter is missing the
// entire text is treated as SQL and the explanation is empty.
func (e *GenerationEngine) Generate(ctx context.Context, prompt string) GenerationResult {
	text, err := e.generator.Complete(ctx, prompt)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("sql generation failed, returning degraded response", "error", err)
		}
		return degradedResult(err)
	}
	return splitResponse(text)
}

// GenerateStream forwards fragments to onChunk as the provider produces them
// and returns the concatenated text that was delivered. A mid-stream provider
// fault becomes one final error-comment fragment appended to the text
// accumulated so far, so the stored turn matches what the consumer received;
// an error from onChunk (the consumer is gone) or a cancelled context is
// returned as-is so the caller can stop.
func (e *GenerationEngine) GenerateStream(ctx context.Context, prompt string, onChunk func(chunk string) error) (string, error) {
	var full strings.Builder
	_, err := e.generator.StreamComplete(ctx, prompt, func(chunk string) error {
		if chunkErr := onChunk(chunk); chunkErr != nil {
			return chunkErr
		}
		full.WriteString(chunk)
		return nil
	})
	if err == nil {
		return full.String(), nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	if e.logger != nil {
		e.logger.Warn("sql generation stream failed, emitting degraded fragment", "error", err)
	}
	degraded := "-- SQL generation failed: " + err.Error()
	if prefix := full.String(); prefix != "" && !strings.HasSuffix(prefix, "\n") {
		degraded = "\n" + degraded
	}
	if chunkErr := onChunk(degraded); chunkErr != nil {
		return "", chunkErr
	}
	full.WriteString(degraded)
	return full.String(), nil
}

func degradedResult(err error) GenerationResult {
	return GenerationResult{
		SQL:         "-- SQL generation failed: " + err.Error(),
		Explanation: "An error occurred while generating SQL: " + err.Error(),
	}
}

// splitResponse looks for the first line that is exactly the delimiter. Text
// before it is the explanation, text after it is the SQL.
func splitResponse(text string) GenerationResult {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == ResponseDelimiter {
			return GenerationResult{
				Explanation: strings.TrimSpace(strings.Join(lines[:i], "\n")),
				SQL:         strings.TrimSpace(strings.Join(lines[i+1:], "\n")),
			}
		}
	}
	return GenerationResult{SQL: strings.TrimSpace(text)}
}
