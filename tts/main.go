// Package tts chooses between the local Piper engine and the cloud voice
// service, preferring the configured engine and degrading per call.
package tts

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cafelingo/logger"
	"cafelingo/modelapi/openaiapi"
	"cafelingo/modelapi/piperapi"
	"cafelingo/prompts"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Engine identifies a synthesis backend.
type Engine string

const (
	EnginePiper  Engine = "piper"
	EngineOpenAI Engine = "openai"
	EngineNone   Engine = "none"
)

// Voices maps language and gender to a cloud voice ID.
var Voices = map[prompts.Language]map[string]string{
	prompts.LangEnglish: {
		"female": "nova",
		"male":   "onyx",
	},
	prompts.LangSpanish: {
		"female": "shimmer",
		"male":   "echo",
	},
}

// VoiceFor resolves a cloud voice, defaulting to the English female voice.
func VoiceFor(lang prompts.Language, gender string) string {
	if byGender, ok := Voices[lang]; ok {
		if voice, ok := byGender[strings.ToLower(gender)]; ok {
			return voice
		}
	}
	return Voices[prompts.LangEnglish]["female"]
}

type TTSConnectProps struct {
	Logger *logger.LogMiddleware
	Piper  *piperapi.Piper
	Cloud  *openaiapi.OpenAI
}

type TTS struct {
	logger *logger.LogMiddleware
	piper  *piperapi.Piper
	cloud  *openaiapi.OpenAI
}

func Connect(ctx context.Context, args TTSConnectProps) *TTS {
	tracer := otel.Tracer("tts/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	t := &TTS{logger: args.Logger, piper: args.Piper, cloud: args.Cloud}

	span.SetAttributes(attribute.String("tts.active_engine", string(t.PickEngine())))
	args.Logger.Logger(ctx).Info("[TTS] Engine preference",
		zap.String("preferred", string(Preferred())),
		zap.String("active", string(t.PickEngine())))

	return t
}

// Preferred returns the configured engine preference, defaulting to Piper.
func Preferred() Engine {
	switch strings.ToLower(os.Getenv("TTS_ENGINE")) {
	case "openai", "cloud":
		return EngineOpenAI
	case "piper", "":
		return EnginePiper
	}
	return EnginePiper
}

// PickEngine resolves the engine for one call. Readiness is probed fresh
// every time, never cached.
func (t *TTS) PickEngine() Engine {
	preferred := Preferred()

	if preferred == EnginePiper && t.piper.Ready() {
		return EnginePiper
	}
	if preferred == EngineOpenAI && t.cloud.Ready() {
		return EngineOpenAI
	}

	if t.piper.Ready() {
		return EnginePiper
	}
	if t.cloud.Ready() {
		return EngineOpenAI
	}
	return EngineNone
}

// GenerateSpeech synthesizes text with the selected engine. A runtime Piper
// failure falls back to the cloud engine for this single call when it is
// ready; with no engine left the operation fails.
func (t *TTS) GenerateSpeech(ctx context.Context, text string, lang prompts.Language, gender string) ([]byte, string, Engine, error) {
	tracer := otel.Tracer("tts/GenerateSpeech")
	ctx, span := tracer.Start(ctx, "GenerateSpeech")
	defer span.End()

	logger := t.logger.Logger(ctx)

	engine := t.PickEngine()
	span.SetAttributes(
		attribute.String("tts.engine", string(engine)),
		attribute.String("tts.language", string(lang)),
		attribute.String("tts.gender", gender),
	)

	if engine == EnginePiper {
		audioData, mime, err := t.piper.Synthesize(ctx, text)
		if err == nil {
			return audioData, mime, EnginePiper, nil
		}
		logger.Warn("[TTS] Piper synthesis failed, falling back to cloud engine", zap.Error(err))
		span.RecordError(err)
		engine = EngineOpenAI
	}

	if engine == EngineOpenAI && t.cloud.Ready() {
		voice := VoiceFor(lang, gender)
		audioData, mime, err := t.cloud.GenerateSpeech(ctx, text, voice)
		if err != nil {
			span.RecordError(err)
			return nil, "", EngineOpenAI, fmt.Errorf("cloud synthesis failed: %w", err)
		}
		return audioData, mime, EngineOpenAI, nil
	}

	span.AddEvent("No synthesis engine available")
	return nil, "", EngineNone, fmt.Errorf("no speech synthesis engine available")
}

// PiperStatus describes the local engine's readiness for health reporting.
type PiperStatus struct {
	Ready           bool   `json:"ready"`
	BinaryFound     bool   `json:"binary_found"`
	ModelConfigured bool   `json:"model_configured"`
	Binary          string `json:"binary"`
	ModelPath       string `json:"model_path"`
}

type CloudStatus struct {
	Ready bool `json:"ready"`
}

type Status struct {
	ActiveEngine Engine      `json:"active_engine"`
	Piper        PiperStatus `json:"piper"`
	Cloud        CloudStatus `json:"cloud"`
}

// Status reports the selector state and per-engine readiness breakdown.
func (t *TTS) Status() Status {
	return Status{
		ActiveEngine: t.PickEngine(),
		Piper: PiperStatus{
			Ready:           t.piper.Ready(),
			BinaryFound:     piperapi.BinaryFound(),
			ModelConfigured: piperapi.ModelPath() != "",
			Binary:          piperapi.BinaryName(),
			ModelPath:       piperapi.ModelPath(),
		},
		Cloud: CloudStatus{Ready: t.cloud.Ready()},
	}
}
