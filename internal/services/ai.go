package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// TagSuggester proposes tags for a listing draft.
type TagSuggester interface {
	SuggestTags(ctx context.Context, title, body string) ([]string, error)
}

type AIService struct {
	client *openai.Client
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// SuggestTags asks OpenAI GPT for tags that describe a listing
func (s *AIService) SuggestTags(ctx context.Context, title, body string) ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You tag classified listings on a developer community site.
Suggest up to 8 tags for the listing below.

Title: %s

Body:
%s

Rules:
- Tags are single lowercase words made of letters and digits only
- Prefer technologies, roles and topics readers would search for
- Return only a JSON array of strings, for example ["go", "remote", "backend"]`, title, body)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var tags []string
	if err := json.Unmarshal([]byte(content), &tags); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tags, nil
}
