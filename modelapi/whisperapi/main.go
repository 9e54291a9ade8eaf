// Package whisperapi is the client for a local Whisper transcription server
// exposing the OpenAI-style /v1/audio/transcriptions endpoint.
package whisperapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"os"
	"strings"

	"cafelingo/httpmiddleware"
	"cafelingo/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultModel   = "large"
)

// Transcription is one recognized utterance.
type Transcription struct {
	Text       string
	Language   string
	Confidence float64
}

type verboseResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// Detectors sometimes answer with a language name instead of a code.
var languageNameToCode = map[string]string{
	"english": "en",
	"spanish": "es",
}

type WhisperConnectProps struct {
	Logger *logger.LogMiddleware
}

type WhisperAPI struct {
	logger *logger.LogMiddleware
}

func Connect(ctx context.Context, args WhisperConnectProps) *WhisperAPI {
	tracer := otel.Tracer("whisperapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	w := &WhisperAPI{logger: args.Logger}

	span.SetAttributes(
		attribute.String("whisper.url", BaseURL()),
		attribute.String("whisper.model", ModelName()),
	)

	if w.Ready(ctx) {
		args.Logger.Logger(ctx).Info("[Whisper-API] Transcription server reachable",
			zap.String("url", BaseURL()),
			zap.String("model", ModelName()))
	} else {
		args.Logger.Logger(ctx).Warn("[Whisper-API] Transcription server not reachable at startup",
			zap.String("url", BaseURL()))
	}

	return w
}

// BaseURL returns the Whisper server address, WHISPER_URL or the local default.
func BaseURL() string {
	if url := os.Getenv("WHISPER_URL"); url != "" {
		return url
	}
	return defaultBaseURL
}

// ModelName returns the Whisper model label, WHISPER_MODEL or the default.
func ModelName() string {
	if model := os.Getenv("WHISPER_MODEL"); model != "" {
		return model
	}
	return defaultModel
}

// Ready probes the transcription server's health endpoint.
func (w *WhisperAPI) Ready(ctx context.Context) bool {
	_, err := httpmiddleware.HttpRequestWithContext(ctx, httpmiddleware.HttpRequestStruct{
		Method: "GET",
		Url:    BaseURL() + "/health",
	})
	return err == nil
}

// Transcribe sends audio bytes to the Whisper server and returns the text,
// the detected language code and a confidence derived from segment logprobs.
func (w *WhisperAPI) Transcribe(ctx context.Context, audioData []byte, filename string) (*Transcription, error) {
	tracer := otel.Tracer("whisperapi/Transcribe")
	ctx, span := tracer.Start(ctx, "Transcribe")
	defer span.End()

	span.SetAttributes(attribute.Int("audio.data.size", len(audioData)))

	logger := w.logger.Logger(ctx)

	if filename == "" {
		filename = "audio.webm"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not build multipart body: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not write audio data: %w", err)
	}
	writer.WriteField("model", ModelName())
	writer.WriteField("response_format", "verbose_json")
	if err := writer.Close(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not finalize multipart body: %w", err)
	}

	span.AddEvent("Calling Whisper server")
	respBody, err := httpmiddleware.HttpRequestWithContext(ctx, httpmiddleware.HttpRequestStruct{
		Method: "POST",
		Url:    BaseURL() + "/v1/audio/transcriptions",
		Body:   &body,
		Headers: map[string]string{
			"Content-Type": writer.FormDataContentType(),
		},
	})
	if err != nil {
		logger.Error("[Whisper-API] Transcription failed", zap.Error(err))
		span.RecordError(err)
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	var parsed verboseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not parse whisper response: %w", err)
	}

	result := &Transcription{
		Text:       strings.TrimSpace(parsed.Text),
		Language:   normalizeLanguageCode(parsed.Language),
		Confidence: confidenceFromSegments(parsed),
	}

	logger.Info("[Whisper-API] Successfully transcribed audio",
		zap.String("transcription", result.Text),
		zap.String("language", result.Language),
		zap.Float64("confidence", result.Confidence))
	span.SetAttributes(
		attribute.Int("transcription.length", len(result.Text)),
		attribute.String("transcription.language", result.Language),
	)

	return result, nil
}

func normalizeLanguageCode(lang string) string {
	lowered := strings.ToLower(strings.TrimSpace(lang))
	if code, ok := languageNameToCode[lowered]; ok {
		return code
	}
	return lowered
}

// confidenceFromSegments maps the mean segment log-probability to [0,1].
func confidenceFromSegments(resp verboseResponse) float64 {
	if len(resp.Segments) == 0 {
		return 0
	}
	var sum float64
	for _, segment := range resp.Segments {
		sum += segment.AvgLogprob
	}
	confidence := math.Exp(sum / float64(len(resp.Segments)))
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
