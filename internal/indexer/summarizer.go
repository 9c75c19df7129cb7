package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/user/ytlearn/internal/config"
)

// Status tells whether a summary came from the model or is a placeholder.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// DegradedSummary is stored in place of a summary the model could not produce.
const DegradedSummary = "Summary generation failed"

// SummaryResult contains the LLM-generated summary and keywords
type SummaryResult struct {
	Status   Status
	Summary  string
	Keywords string
	// RawResponse is the unparsed model output, empty when degraded.
	RawResponse string
	Err         *SummarizeError
}

// Degraded reports whether the summary is the failure placeholder.
func (r *SummaryResult) Degraded() bool {
	return r.Status == StatusDegraded
}

// SummarizeError describes why the summarization service gave no usable
// answer. It is carried inside a degraded SummaryResult, never returned.
type SummarizeError struct {
	Provider string
	Err      error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("summarization via %s failed: %v", e.Provider, e.Err)
}

func (e *SummarizeError) Unwrap() error {
	return e.Err
}

var errMissingCredential = errors.New("no API key provided")

const (
	maxTranscriptWords = 3000
	truncationMarker   = "..."
	summaryMaxTokens   = 500
	summaryTemperature = 0.5
)

const systemPrompt = "You are a helpful assistant that creates clear, informative summaries of educational content."

const summaryPrompt = `You are summarizing an educational video transcript for a data science master's student.

Transcript:
%s

Please provide:
1. A concise bullet-point summary (5-10 key points) capturing the main concepts, techniques, and insights
2. A list of 5-10 relevant keywords/tags for easy searching later

Format your response as:

SUMMARY:
• [point 1]
• [point 2]
...

KEYWORDS:
keyword1, keyword2, keyword3, ...`

// Summarizer generates summaries using LLM
type Summarizer struct {
	provider string
	model    string
	baseURL  string
	logger   *zap.Logger
}

func NewSummarizer(cfg *config.Config, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{
		provider: cfg.LLM.Provider,
		model:    cfg.LLM.Model,
		baseURL:  cfg.LLM.BaseURL,
		logger:   logger,
	}
}

// Summarize asks the configured model for a bullet summary and keywords of
// transcript. It always returns a result: any failure yields a degraded one
// whose Err explains what went wrong.
func (s *Summarizer) Summarize(ctx context.Context, transcript, credential string) *SummaryResult {
	prompt := fmt.Sprintf(summaryPrompt, truncateWords(transcript, maxTranscriptWords))

	response, err := s.complete(ctx, prompt, credential)
	if err == nil && strings.TrimSpace(response) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		s.logger.Warn("summarization failed", zap.String("provider", s.provider), zap.Error(err))
		return &SummaryResult{
			Status:  StatusDegraded,
			Summary: DegradedSummary,
			Err:     &SummarizeError{Provider: s.provider, Err: err},
		}
	}

	result := parseResponse(response)
	result.Status = StatusOK
	result.RawResponse = response
	return result
}

func (s *Summarizer) complete(ctx context.Context, prompt, credential string) (string, error) {
	if credential == "" {
		return "", errMissingCredential
	}

	switch s.provider {
	case "anthropic":
		return s.summarizeWithAnthropic(ctx, prompt, credential)
	case "openai", "openrouter":
		return s.summarizeWithOpenAI(ctx, prompt, credential)
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s", s.provider)
	}
}

func (s *Summarizer) summarizeWithAnthropic(ctx context.Context, prompt, apiKey string) (string, error) {
	var opts []anthropic.ClientOption
	if s.baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(s.baseURL))
	}
	client := anthropic.NewClient(apiKey, opts...)

	temperature := float32(summaryTemperature)
	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(s.model),
		System:      systemPrompt,
		MaxTokens:   summaryMaxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{{Type: "text", Text: &prompt}},
			},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	return resp.Content[0].GetText(), nil
}

func (s *Summarizer) summarizeWithOpenAI(ctx context.Context, prompt, apiKey string) (string, error) {
	baseURL := s.baseURL
	if s.provider == "openrouter" && baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// truncateWords keeps the first max whitespace-separated words of text and
// marks the cut. Shorter text is returned unchanged.
func truncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ") + truncationMarker
}

// parseResponse splits the model output at the KEYWORDS marker. Without one
// the whole output is the summary.
func parseResponse(response string) *SummaryResult {
	result := &SummaryResult{}

	parts := strings.SplitN(response, "KEYWORDS:", 2)
	result.Summary = strings.TrimSpace(strings.ReplaceAll(parts[0], "SUMMARY:", ""))
	if len(parts) > 1 {
		result.Keywords = strings.TrimSpace(parts[1])
	}

	return result
}
