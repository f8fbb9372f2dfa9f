package llm

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
)

const defaultTemperature float32 = 0.7

// OpenAITransport speaks the OpenAI-compatible chat-completions protocol,
// which covers OpenAI, DeepSeek, Groq, OpenRouter, and most self-hosted
// gateways. The model is built per call so that endpoint, credential, and
// TLS policy always reflect the current request.
type OpenAITransport struct{}

func NewOpenAITransport() *OpenAITransport {
	return &OpenAITransport{}
}

func (t *OpenAITransport) Send(ctx context.Context, req Request) (string, error) {
	httpClient := &http.Client{}
	if !req.TLSVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	temperature := defaultTemperature
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      req.APIKey,
		BaseURL:     req.EndpointURL,
		Model:       req.Model,
		Temperature: &temperature,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return "", fmt.Errorf("create chat model: %w", err)
	}

	message, err := chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(req.Prompt),
	})
	if err != nil {
		return "", err
	}
	return message.Content, nil
}
