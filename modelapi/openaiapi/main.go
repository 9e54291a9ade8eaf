package openaiapi

import (
	"context"
	"fmt"
	"io"
	"os"

	"cafelingo/logger"

	// imported as openai
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

type OpenAI struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	client    *openai.Client
}

type OpenAIConnectProps struct {
	Logger *logger.LogMiddleware
}

func Connect(ctx context.Context, args OpenAIConnectProps) *OpenAI {
	tracer := otel.Tracer("openaiapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := 10
	sem := semaphore.NewWeighted(int64(maxWorkers))

	OPENAI_SECRET_KEY := os.Getenv("OPENAI_SECRET_KEY")

	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers))
	client := openai.NewClient(
		option.WithAPIKey(OPENAI_SECRET_KEY),
	)

	return &OpenAI{logger: args.Logger, semaphore: sem, client: &client}
}

// Ready reports whether the cloud synthesis engine is usable.
func (d *OpenAI) Ready() bool {
	return os.Getenv("OPENAI_SECRET_KEY") != ""
}

// GenerateSpeech synthesizes text with the requested voice and returns
// MP3 bytes plus the mime type.
func (d *OpenAI) GenerateSpeech(ctx context.Context, inputText string, voice string) ([]byte, string, error) {
	tracer := otel.Tracer("openaiapi/GenerateSpeech")
	ctx, span := tracer.Start(ctx, "GenerateSpeech")
	defer span.End()

	d.logger.Logger(ctx).Info("[OpenAI-API] Generating speech",
		zap.Int("textLength", len(inputText)),
		zap.String("voice", voice))

	if err := d.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer d.semaphore.Release(1)

	res, err := d.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Model:          openai.SpeechModelGPT4oMiniTTS,
		Input:          inputText,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
	})
	if err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("speech request failed: %w", err)
	}
	defer res.Body.Close()

	audioBytes, err := io.ReadAll(res.Body)
	if err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("could not read audio response: %w", err)
	}

	span.SetAttributes(attribute.Int("audio.size", len(audioBytes)))
	return audioBytes, "audio/mp3", nil
}
