package openaiapi

import (
	"context"
	"os"
	"testing"
	"time"

	"cafelingo/logger"
)

func TestReady(t *testing.T) {
	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})

	t.Setenv("OPENAI_SECRET_KEY", "")
	client := Connect(context.Background(), OpenAIConnectProps{Logger: logMiddleware})
	if client.Ready() {
		t.Error("Ready should be false without a key")
	}

	t.Setenv("OPENAI_SECRET_KEY", "test-key")
	if !client.Ready() {
		t.Error("Ready should be true with a key")
	}
}

// Live round-trip against the real speech API.
func TestGenerateSpeech(t *testing.T) {
	apiKey := os.Getenv("OPENAI_SECRET_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_SECRET_KEY environment variable not set, skipping test")
	}

	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := Connect(ctx, OpenAIConnectProps{Logger: logMiddleware})

	audioData, mime, err := client.GenerateSpeech(ctx, "Welcome to the cafe!", "nova")
	if err != nil {
		t.Fatalf("GenerateSpeech failed: %v", err)
	}
	if len(audioData) == 0 {
		t.Error("Expected non-empty audio, got empty bytes")
	}
	if mime != "audio/mp3" {
		t.Errorf("mime = %q", mime)
	}
}
