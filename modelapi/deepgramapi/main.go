package deepgramapi

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"cafelingo/logger"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Transcription is one recognized utterance with detection metadata.
type Transcription struct {
	Text       string
	Language   string
	Confidence float64
}

type DeepgramAPI struct {
	logger *logger.LogMiddleware
	dg     *api.Client
}

func Connect(logger *logger.LogMiddleware) *DeepgramAPI {
	c := client.NewRESTWithDefaults()
	dg := api.New(c)

	return &DeepgramAPI{logger: logger, dg: dg}
}

// Ready reports whether the cloud recognizer is usable at all.
func (d *DeepgramAPI) Ready() bool {
	return os.Getenv("DEEPGRAM_API_KEY") != ""
}

// Transcribe recognizes speech from audio bytes and reports the detected
// language plus the recognizer's confidence.
func (d *DeepgramAPI) Transcribe(ctx context.Context, audioData []byte) (*Transcription, error) {
	tracer := otel.Tracer("deepgramapi")
	ctx, span := tracer.Start(ctx, "Transcribe")
	defer span.End()

	span.SetAttributes(attribute.Int("audio.data.size", len(audioData)))

	logger := d.logger.Logger(ctx)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Punctuate:      true,
		Diarize:        false,
		DetectLanguage: true,
		Model:          "nova-2",
	}

	audioReader := bytes.NewReader(audioData)

	span.AddEvent("Calling Deepgram API")
	res, err := d.dg.FromStream(ctx, audioReader, options)
	if err != nil {
		logger.Error("[Deepgram-API] Transcription failed", zap.Error(err))
		span.RecordError(err)
		return nil, fmt.Errorf("deepgram transcription failed: %w", err)
	}

	if res != nil && res.Results != nil && len(res.Results.Channels) > 0 {
		channel := res.Results.Channels[0]
		if len(channel.Alternatives) > 0 {
			alternative := channel.Alternatives[0]
			result := &Transcription{
				Text:       strings.TrimSpace(alternative.Transcript),
				Language:   strings.ToLower(channel.DetectedLanguage),
				Confidence: alternative.Confidence,
			}
			logger.Info("[Deepgram-API] Successfully transcribed audio",
				zap.String("transcription", result.Text),
				zap.String("detected_language", result.Language))
			span.AddEvent("Transcription successful", trace.WithAttributes(
				attribute.Int("transcription.length", len(result.Text)),
				attribute.String("transcription.language", result.Language),
			))
			return result, nil
		}
	}

	logger.Warn("[Deepgram-API] No transcription found in response")
	span.AddEvent("No transcription found in Deepgram response")
	return nil, fmt.Errorf("no transcription found in response")
}
