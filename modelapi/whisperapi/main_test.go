package whisperapi

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"cafelingo/logger"
)

func testWhisper(t *testing.T, handler http.Handler) *WhisperAPI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("WHISPER_URL", server.URL)

	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	return Connect(context.Background(), WhisperConnectProps{Logger: logMiddleware})
}

func TestTranscribe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("bad multipart request: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file field: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"text":     "  Hola, quiero un café.  ",
			"language": "Spanish",
			"segments": []map[string]any{
				{"avg_logprob": -0.2},
				{"avg_logprob": -0.4},
			},
		})
	})

	whisper := testWhisper(t, mux)

	result, err := whisper.Transcribe(context.Background(), []byte("fake-audio"), "turn.webm")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "Hola, quiero un café." {
		t.Errorf("text = %q", result.Text)
	}
	if result.Language != "es" {
		t.Errorf("language = %q, want es", result.Language)
	}

	want := math.Exp(-0.3)
	if math.Abs(result.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", result.Confidence, want)
	}
}

func TestTranscribeNoSegments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"text": "hi", "language": "en"})
	})

	result, err := testWhisper(t, mux).Transcribe(context.Background(), []byte("fake-audio"), "")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %v, want 0 without segments", result.Confidence)
	}
	if result.Language != "en" {
		t.Errorf("language = %q", result.Language)
	}
}

func TestTranscribeServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	if _, err := testWhisper(t, mux).Transcribe(context.Background(), []byte("fake-audio"), ""); err == nil {
		t.Fatal("expected an error on a 500 response")
	}
}

func TestReady(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	whisper := testWhisper(t, mux)
	if !whisper.Ready(context.Background()) {
		t.Error("Ready should be true when the health endpoint answers")
	}

	t.Setenv("WHISPER_URL", "http://127.0.0.1:1")
	if whisper.Ready(context.Background()) {
		t.Error("Ready should be false when the server is unreachable")
	}
}
