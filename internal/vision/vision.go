// Package vision reads playing cards off a photo with a vision-capable chat
// model.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"

	"github.com/susu3304/chipbot/internal/cards"
)

var ErrNoAnswer = errors.New("vision model returned no answer")

// Recognizer maps an image to card labels such as "As" or "Td".
type Recognizer interface {
	Recognize(ctx context.Context, imageURL string) ([]string, error)
}

const prompt = `You read playing cards in photos. Reply with the visible cards only, ` +
	`as rank then suit letter (2-9, T, J, Q, K, A then c, d, h, s), separated by commas. ` +
	`Example: "As, Td, 7h". Reply "none" if there are no cards.`

type Client struct {
	client *openai.Client
	model  string
}

var _ Recognizer = (*Client)(nil)

func NewClient(apiKey, model string) *Client {
	return NewClientWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewClientWithConfig(cfg openai.ClientConfig, model string) *Client {
	if model == "" {
		model = openai.GPT4o
	}
	return &Client{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *Client) Recognize(ctx context.Context, imageURL string) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Which cards are in this picture?"},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoAnswer
	}
	answer := resp.Choices[0].Message.Content
	labels := ParseLabels(answer)
	log.Debugf("Vision answer %q -> %v", answer, labels)
	return labels, nil
}

// ParseLabels extracts distinct card tokens from free text, in order.
func ParseLabels(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '"' || r == '.' || r == '[' || r == ']'
	})
	seen := make(map[cards.Card]struct{})
	var out []string
	for _, f := range fields {
		c, err := cards.Parse(f)
		if err != nil {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c.Token())
	}
	return out
}
