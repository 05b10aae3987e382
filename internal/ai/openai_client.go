package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient is a Runtime backed by the official OpenAI SDK.
type OpenAIClient struct {
	client *openai.Client
	hasKey bool
}

// NewOpenAIClient builds an SDK client. baseURL may point at any
// OpenAI-compatible server; empty keeps the SDK default.
func NewOpenAIClient(apiKey, baseURL string, httpTimeout time.Duration, retryMax int) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(httpTimeout))
	}
	if retryMax > 0 {
		// The SDK counts retries, not attempts.
		opts = append(opts, option.WithMaxRetries(retryMax-1))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client, hasKey: apiKey != ""}
}

// Generate maps the shared request onto a chat completion call.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if !c.hasKey {
		return nil, ErrNoCredential
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fromOpenAIError(err)
	}
	out := &GenerateResponse{
		ID: resp.ID,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		RequestID: resp.ID,
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, Choice{Message: Message{Role: RoleAssistant, Content: ch.Message.Content}})
	}
	return out, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// fromOpenAIError converts SDK status errors into this package's typed errors.
func fromOpenAIError(err error) error {
	var sdkErr *openai.Error
	if !errors.As(err, &sdkErr) {
		return err
	}
	apiErr := &APIError{StatusCode: sdkErr.StatusCode, Code: sdkErr.Code, Message: sdkErr.Message}
	header := http.Header{}
	if sdkErr.Response != nil {
		header = sdkErr.Response.Header
		apiErr.RequestID = extractRequestID(sdkErr.Response)
	}
	return classifyAPIError(apiErr, header)
}
