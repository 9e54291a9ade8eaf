// Package piperapi drives the local Piper speech-synthesis binary.
// https://github.com/rhasspy/piper
package piperapi

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"cafelingo/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type PiperConnectProps struct {
	Logger *logger.LogMiddleware
}

type Piper struct {
	logger *logger.LogMiddleware
}

func Connect(ctx context.Context, args PiperConnectProps) *Piper {
	tracer := otel.Tracer("piperapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	p := &Piper{logger: args.Logger}

	span.SetAttributes(
		attribute.String("piper.binary", BinaryName()),
		attribute.Bool("piper.ready", p.Ready()),
	)

	args.Logger.Logger(ctx).Info("[Piper-API] Local synthesis engine",
		zap.String("binary", BinaryName()),
		zap.String("model_path", ModelPath()),
		zap.Bool("ready", p.Ready()))

	return p
}

// BinaryName returns the Piper executable name, PIPER_BINARY or "piper".
func BinaryName() string {
	if bin := os.Getenv("PIPER_BINARY"); bin != "" {
		return bin
	}
	return "piper"
}

// ModelPath returns the configured voice model path, empty when unset.
func ModelPath() string {
	return os.Getenv("PIPER_MODEL_PATH")
}

// BinaryFound reports whether the Piper executable resolves on the path.
func BinaryFound() bool {
	_, err := exec.LookPath(BinaryName())
	return err == nil
}

// Ready reports whether a model is configured, present on disk and the
// binary is resolvable. Computed fresh on every call.
func (p *Piper) Ready() bool {
	modelPath := ModelPath()
	if modelPath == "" {
		return false
	}
	info, err := os.Stat(modelPath)
	if err != nil || info.IsDir() {
		return false
	}
	return BinaryFound()
}

// Synthesize runs Piper with the text on stdin and returns the WAV bytes.
// The transient output file is removed on every path.
func (p *Piper) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	tracer := otel.Tracer("piperapi/Synthesize")
	ctx, span := tracer.Start(ctx, "Synthesize")
	defer span.End()

	logger := p.logger.Logger(ctx)

	if !p.Ready() {
		return nil, "", fmt.Errorf("piper engine not ready")
	}

	tmpFile, err := os.CreateTemp("", "piper-*.wav")
	if err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("could not create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cmdArgs := []string{"--model", ModelPath(), "--output_file", tmpPath}
	if speaker := os.Getenv("PIPER_SPEAKER_ID"); speaker != "" {
		cmdArgs = append(cmdArgs, "--speaker", speaker)
	}

	span.SetAttributes(attribute.Int("text.length", len(text)))

	cmd := exec.CommandContext(ctx, BinaryName(), cmdArgs...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Error("[Piper-API] Synthesis command failed",
			zap.Error(err),
			zap.String("stderr", stderr.String()))
		span.RecordError(err)
		return nil, "", fmt.Errorf("piper failed: %w", err)
	}

	audioData, err := os.ReadFile(tmpPath)
	if err != nil {
		logger.Error("[Piper-API] Piper did not produce an output file", zap.Error(err))
		span.RecordError(err)
		return nil, "", fmt.Errorf("piper produced no output: %w", err)
	}
	if len(audioData) == 0 {
		return nil, "", fmt.Errorf("piper produced empty output")
	}

	logger.Info("[Piper-API] Speech generated", zap.Int("audioSize", len(audioData)))
	span.SetAttributes(attribute.Int("audio.size", len(audioData)))

	return audioData, "audio/wav", nil
}
