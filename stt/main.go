// Package stt picks a speech-recognition engine per call: the local Whisper
// server when reachable, otherwise the cloud recognizer when configured.
package stt

import (
	"context"
	"fmt"

	"cafelingo/logger"
	"cafelingo/modelapi/deepgramapi"
	"cafelingo/modelapi/whisperapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Result is a recognized utterance, whichever engine produced it.
type Result struct {
	Text       string
	Language   string
	Confidence float64
	Engine     string
}

type RouterConnectProps struct {
	Logger   *logger.LogMiddleware
	Whisper  *whisperapi.WhisperAPI
	Deepgram *deepgramapi.DeepgramAPI
}

type Router struct {
	logger   *logger.LogMiddleware
	whisper  *whisperapi.WhisperAPI
	deepgram *deepgramapi.DeepgramAPI
}

func Connect(ctx context.Context, args RouterConnectProps) *Router {
	tracer := otel.Tracer("stt/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	return &Router{
		logger:   args.Logger,
		whisper:  args.Whisper,
		deepgram: args.Deepgram,
	}
}

// Status reports recognizer readiness for health checks.
type Status struct {
	WhisperReady  bool `json:"whisper_ready"`
	DeepgramReady bool `json:"deepgram_ready"`
}

func (r *Router) Status(ctx context.Context) Status {
	return Status{
		WhisperReady:  r.whisper.Ready(ctx),
		DeepgramReady: r.deepgram.Ready(),
	}
}

// Transcribe runs recognition with the preferred engine, falling back to the
// cloud recognizer for this call when the local server is unreachable.
func (r *Router) Transcribe(ctx context.Context, audioData []byte, filename string) (*Result, error) {
	tracer := otel.Tracer("stt/Transcribe")
	ctx, span := tracer.Start(ctx, "Transcribe")
	defer span.End()

	logger := r.logger.Logger(ctx)

	if r.whisper.Ready(ctx) {
		transcription, err := r.whisper.Transcribe(ctx, audioData, filename)
		if err == nil {
			span.SetAttributes(attribute.String("stt.engine", "whisper"))
			return &Result{
				Text:       transcription.Text,
				Language:   transcription.Language,
				Confidence: transcription.Confidence,
				Engine:     "whisper",
			}, nil
		}
		logger.Warn("[STT] Local recognition failed, trying cloud fallback", zap.Error(err))
		span.RecordError(err)
	}

	if r.deepgram.Ready() {
		transcription, err := r.deepgram.Transcribe(ctx, audioData)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(attribute.String("stt.engine", "deepgram"))
		return &Result{
			Text:       transcription.Text,
			Language:   transcription.Language,
			Confidence: transcription.Confidence,
			Engine:     "deepgram",
		}, nil
	}

	span.AddEvent("No recognition engine available")
	return nil, fmt.Errorf("no speech recognition engine available")
}
