package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cafelingo/logger"
	"cafelingo/modelapi/deepgramapi"
	"cafelingo/modelapi/whisperapi"
)

func testRouter(t *testing.T) *Router {
	t.Helper()
	ctx := context.Background()
	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	whisperClient := whisperapi.Connect(ctx, whisperapi.WhisperConnectProps{Logger: logMiddleware})
	deepgramClient := deepgramapi.Connect(logMiddleware)
	return Connect(ctx, RouterConnectProps{Logger: logMiddleware, Whisper: whisperClient, Deepgram: deepgramClient})
}

func TestTranscribePrefersWhisper(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"text":     "a coffee please",
			"language": "en",
			"segments": []map[string]any{{"avg_logprob": -0.1}},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	t.Setenv("WHISPER_URL", server.URL)
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	result, err := testRouter(t).Transcribe(context.Background(), []byte("fake-audio"), "turn.webm")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Engine != "whisper" {
		t.Errorf("engine = %q, want whisper", result.Engine)
	}
	if result.Text != "a coffee please" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestTranscribeNoEngine(t *testing.T) {
	t.Setenv("WHISPER_URL", "http://127.0.0.1:1")
	t.Setenv("DEEPGRAM_API_KEY", "")

	if _, err := testRouter(t).Transcribe(context.Background(), []byte("fake-audio"), ""); err == nil {
		t.Fatal("expected an error with no recognizer available")
	}
}

func TestStatus(t *testing.T) {
	t.Setenv("WHISPER_URL", "http://127.0.0.1:1")
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	status := testRouter(t).Status(context.Background())
	if status.WhisperReady {
		t.Error("whisper should not be ready on an unreachable server")
	}
	if !status.DeepgramReady {
		t.Error("deepgram should report ready with a key")
	}
}
