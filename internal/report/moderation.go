package report

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIModerator captions and flags a finalized report photo using a
// vision-capable chat model plus the moderation endpoint, mirroring
// the "missing API key disables the feature" pattern used elsewhere
// for optional OpenAI-backed enrichment.
type OpenAIModerator struct {
	client openai.Client
	model  string
}

// NewOpenAIModerator builds a Moderator from the OPENAI_API_KEY
// environment variable. An empty key disables the feature: callers
// should treat a non-nil error as "run without moderation", not fatal.
func NewOpenAIModerator() (*OpenAIModerator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	return &OpenAIModerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  "gpt-4o-mini",
	}, nil
}

// Moderate reads imagePath, sends it to the moderation endpoint for a
// safe/unsafe flag and to a vision-capable chat model for a one-line
// caption, and returns both.
func (m *OpenAIModerator) Moderate(ctx context.Context, imagePath string) (label, caption string, err error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", "", err
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	modResp, err := m.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{
			OfModerationMultiModalArray: []openai.ModerationMultiModalInputParam{
				{OfImageURL: &openai.ModerationImageURLInputParam{
					ImageURL: openai.ModerationImageURLInputImageURLParam{URL: dataURL},
				}},
			},
		},
	})
	if err != nil {
		return "", "", err
	}
	if len(modResp.Results) > 0 && modResp.Results[0].Flagged {
		label = "unsafe"
	} else {
		label = "safe"
	}

	chatResp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: m.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				{OfText: &openai.ChatCompletionContentPartTextParam{Text: "Caption this wildfire report photo in one short sentence."}},
				{OfImageURL: &openai.ChatCompletionContentPartImageParam{
					ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
				}},
			}),
		},
	})
	if err != nil {
		return label, "", err
	}
	if len(chatResp.Choices) > 0 {
		caption = strings.TrimSpace(chatResp.Choices[0].Message.Content)
	}

	return label, caption, nil
}
