package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/feedpilot/backend/internal/domain"
)

const (
	defaultModel          = "gpt-4o-mini"
	defaultMaxTitleLength = 150
	maxRecommendations    = 5
)

const systemPrompt = `You write product titles for Google Shopping feeds.
Keep the language of the original title. Put the brand and the product type first,
then the most searched attributes (material, color, size, gender).
No promotional wording, no capital-letter shouting, no emoji.
Answer with the title only, on a single line.`

// Config holds the settings of the title suggester
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	MaxTitleLength int
}

// TitleSuggester proposes Shopping-friendly titles through a chat completion model
type TitleSuggester struct {
	client         *openai.Client
	model          string
	maxTitleLength int
	logger         zerolog.Logger
}

// NewTitleSuggester creates a suggester. BaseURL allows OpenAI-compatible gateways.
func NewTitleSuggester(config Config, logger zerolog.Logger) *TitleSuggester {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}
	maxLength := config.MaxTitleLength
	if maxLength <= 0 {
		maxLength = defaultMaxTitleLength
	}

	return &TitleSuggester{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          model,
		maxTitleLength: maxLength,
		logger:         logger.With().Str("component", "llm").Logger(),
	}
}

// SuggestTitle asks the model for a better title for the product
func (s *TitleSuggester) SuggestTitle(ctx context.Context, product domain.Product, recommendations []string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(product, recommendations, s.maxTitleLength)},
		},
		MaxTokens:   100,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSuggestionFailure, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", domain.ErrSuggestionFailure)
	}

	title := cleanTitle(resp.Choices[0].Message.Content, s.maxTitleLength)
	if title == "" {
		return "", fmt.Errorf("%w: blank title", domain.ErrSuggestionFailure)
	}

	s.logger.Debug().Str("product_id", product.ID).Str("title", title).Msg("title suggested")
	return title, nil
}

func buildPrompt(p domain.Product, recommendations []string, maxLength int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current title: %s\n", p.Title)
	if p.Brand != "" {
		fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	}
	if p.ProductType != "" {
		fmt.Fprintf(&b, "Product type: %s\n", p.ProductType)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", p.TagsText())
	}
	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	for _, r := range recommendations {
		fmt.Fprintf(&b, "Issue: %s\n", r)
	}
	fmt.Fprintf(&b, "Write a new title of at most %d characters.", maxLength)
	return b.String()
}

// cleanTitle keeps the first line, drops wrapping quotes and cuts at a word boundary
func cleanTitle(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'«»`))
	s = strings.Join(strings.Fields(s), " ")

	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)[:maxLength]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
