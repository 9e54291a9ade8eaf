package ollamaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"cafelingo/httpmiddleware"
	"cafelingo/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	ASSISTANT = "assistant"
	SYSTEM    = "system"
	USER      = "user"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "qwen3:8b"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions are Ollama sampling options; zero values are omitted.
type ChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type ChatRequestInput struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *ChatOptions  `json:"options,omitempty"`
}

type ChatResponse struct {
	Model   string      `json:"model"`
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type OllamaConnectProps struct {
	Logger *logger.LogMiddleware
}

type Ollama struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
}

func Connect(ctx context.Context, args OllamaConnectProps) *Ollama {
	tracer := otel.Tracer("ollamaapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := 10
	sem := semaphore.NewWeighted(int64(maxWorkers))

	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers))

	return &Ollama{logger: args.Logger, semaphore: sem}
}

// BaseURL returns the Ollama server address, OLLAMA_URL or the local default.
func BaseURL() string {
	if url := os.Getenv("OLLAMA_URL"); url != "" {
		return url
	}
	return defaultBaseURL
}

// Model returns the chat model name, CHAT_MODEL or the default.
func Model() string {
	if model := os.Getenv("CHAT_MODEL"); model != "" {
		return model
	}
	return defaultModel
}

type MakeAPIRequestProps struct {
	Retries      int
	RequestInput ChatRequestInput
}

// Used for retry logic.
func GetExponentialDelaySeconds(retryNumber int) int {
	delayTime := int(5 * math.Pow(2, float64(retryNumber)))
	return delayTime
}

func (o *Ollama) MakeAPIRequest(ctx context.Context, args MakeAPIRequestProps) (*ChatResponse, error) {
	tracer := otel.Tracer("ollamaapi/MakeAPIRequest")
	ctx, span := tracer.Start(ctx, "MakeAPIRequest")
	defer span.End()

	url := BaseURL() + "/api/chat"

	span.SetAttributes(
		attribute.String("api.url", url),
		attribute.String("request.model", args.RequestInput.Model),
		attribute.Int("request.messages", len(args.RequestInput.Messages)),
	)

	chatInput := args.RequestInput
	retries := args.Retries
	originalRetries := args.Retries

	jsonData, err := json.Marshal(chatInput)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not generate request body: %w", err)
	}

	span.SetAttributes(attribute.Int("retries", retries))

	for retries > 0 {
		sleepTime := GetExponentialDelaySeconds(originalRetries - retries)

		if err := o.semaphore.Acquire(ctx, 1); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to acquire semaphore")
		}

		respBody, err := httpmiddleware.HttpRequestWithContext(ctx, httpmiddleware.HttpRequestStruct{
			Method: "POST",
			Url:    url,
			Body:   bytes.NewBuffer(jsonData),
			Headers: map[string]string{
				"content-type": "application/json",
			},
		})
		o.semaphore.Release(1)

		if err != nil {
			span.RecordError(err)
			retries -= 1
			o.logger.Logger(ctx).Error(
				"[Ollama-API] Could not make request to Ollama.",
				zap.Error(err),
				zap.Int("retries_left", retries),
			)
			if retries > 0 {
				time.Sleep(time.Duration(sleepTime) * time.Second)
			}
			continue
		}

		var messageResponse ChatResponse
		err = json.Unmarshal(respBody, &messageResponse)
		if err != nil || messageResponse.Message.Content == "" {
			span.RecordError(err)
			retries -= 1
			o.logger.Logger(ctx).Error(
				"[Ollama-API] Could not parse Ollama response.",
				zap.Int("retries_left", retries),
				zap.Error(err),
				zap.String("response_body", string(respBody)),
			)
			if retries > 0 {
				time.Sleep(time.Duration(sleepTime) * time.Second)
			}
			continue
		}

		span.AddEvent("Request successful")
		return &messageResponse, nil
	}

	span.AddEvent("All retries exhausted")
	return nil, fmt.Errorf("ollama requests failed")
}

// GetChatResponse sends a system prompt plus conversation to the chat model
// and returns the assistant's reply text.
func (o *Ollama) GetChatResponse(ctx context.Context, systemPrompt string, history []ChatMessage, newUserMessage string, opts *ChatOptions) (string, error) {
	tracer := otel.Tracer("ollamaapi/GetChatResponse")
	ctx, span := tracer.Start(ctx, "GetChatResponse")
	defer span.End()

	span.SetAttributes(
		attribute.Int("conversation_history_length", len(history)),
		attribute.Int("new_user_message_length", len(newUserMessage)),
	)

	messages := []ChatMessage{
		{
			Role:    SYSTEM,
			Content: systemPrompt,
		},
	}
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{
		Role:    USER,
		Content: newUserMessage,
	})

	// Single attempt; interactive callers surface the failure immediately.
	requestInput := MakeAPIRequestProps{
		Retries: 1,
		RequestInput: ChatRequestInput{
			Model:    Model(),
			Messages: messages,
			Stream:   false,
			Options:  opts,
		},
	}

	resp, err := o.MakeAPIRequest(ctx, requestInput)
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(resp.Message.Content)
	if content == "" {
		return "", fmt.Errorf("no response received")
	}

	return content, nil
}

// ListModels returns the model names known to the Ollama server.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	tracer := otel.Tracer("ollamaapi/ListModels")
	ctx, span := tracer.Start(ctx, "ListModels")
	defer span.End()

	respBody, err := httpmiddleware.HttpRequestWithContext(ctx, httpmiddleware.HttpRequestStruct{
		Method: "GET",
		Url:    BaseURL() + "/api/tags",
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not list ollama models: %w", err)
	}

	var tags tagsResponse
	if err := json.Unmarshal(respBody, &tags); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not parse ollama model list: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	span.SetAttributes(attribute.Int("models.count", len(names)))
	return names, nil
}

// HasModel reports whether the configured chat model is installed.
func (o *Ollama) HasModel(ctx context.Context) bool {
	names, err := o.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, name := range names {
		if name == Model() {
			return true
		}
	}
	return false
}
