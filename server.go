package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"cafelingo/logger"
	"cafelingo/modelapi/deepgramapi"
	"cafelingo/modelapi/ollamaapi"
	"cafelingo/modelapi/openaiapi"
	"cafelingo/modelapi/piperapi"
	"cafelingo/modelapi/whisperapi"
	"cafelingo/prompts"
	"cafelingo/stt"
	"cafelingo/tts"
	"cafelingo/webserver"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs"
	sdk "github.com/hyperdxio/opentelemetry-logs-go/sdk/logs"
	"github.com/hyperdxio/otel-config-go/otelconfig"
)

const defaultPort = "5001"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	godotenv.Load()
	production := os.Getenv("PRODUCTION") != ""

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		log.Fatalf("Error setting up OTel SDK - %e", err)
	}
	defer otelShutdown()
	ctx := context.Background()

	logExporter, _ := otlplogs.NewExporter(ctx)
	loggerProvider := sdk.NewLoggerProvider(sdk.WithBatcher(logExporter))
	defer loggerProvider.Shutdown(ctx)

	LogMiddleware := logger.Connect(logger.LoggerConnectProps{Production: production, LoggerProvider: loggerProvider})

	whisperClient := whisperapi.Connect(ctx, whisperapi.WhisperConnectProps{Logger: LogMiddleware})
	deepgramClient := deepgramapi.Connect(LogMiddleware)
	sttRouter := stt.Connect(ctx, stt.RouterConnectProps{Logger: LogMiddleware, Whisper: whisperClient, Deepgram: deepgramClient})

	ollamaClient := ollamaapi.Connect(ctx, ollamaapi.OllamaConnectProps{Logger: LogMiddleware})

	piperClient := piperapi.Connect(ctx, piperapi.PiperConnectProps{Logger: LogMiddleware})
	openaiClient := openaiapi.Connect(ctx, openaiapi.OpenAIConnectProps{Logger: LogMiddleware})
	ttsClient := tts.Connect(ctx, tts.TTSConnectProps{Logger: LogMiddleware, Piper: piperClient, Cloud: openaiClient})

	composer := prompts.Connect(ctx, prompts.ComposerConnectProps{Logger: LogMiddleware})

	server := webserver.Connect(webserver.WebServerConnectProps{
		Logger:   LogMiddleware,
		Composer: composer,
		STT:      sttRouter,
		Chat:     ollamaClient,
		TTS:      ttsClient,
	})

	Logger := LogMiddleware.Logger(ctx)

	if production == false {
		Logger.Info("[Server] Starting in development mode")
	} else {
		Logger.Info("[Server] Starting in production mode")
	}

	sttStatus := sttRouter.Status(ctx)
	ttsStatus := ttsClient.Status()
	Logger.Info("[Server] Engine status",
		zap.String("chat_model", ollamaapi.Model()),
		zap.Bool("chat_model_available", ollamaClient.HasModel(ctx)),
		zap.Bool("whisper_ready", sttStatus.WhisperReady),
		zap.Bool("deepgram_ready", sttStatus.DeepgramReady),
		zap.String("tts_engine", string(ttsStatus.ActiveEngine)))

	handler := otelhttp.NewHandler(server.Router(), "cafelingo")

	Logger.Info("[Server] Listening", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		Logger.Fatal("[Server] HTTP server stopped", zap.Error(err))
	}
}
