// Package webserver exposes the HTTP API: transcription, role-play chat,
// coaching feedback and speech synthesis endpoints.
package webserver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cafelingo/feedback"
	"cafelingo/logger"
	"cafelingo/modelapi/ollamaapi"
	"cafelingo/modelapi/whisperapi"
	"cafelingo/prompts"
	"cafelingo/stt"
	"cafelingo/tts"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// History caps per endpoint; older turns are dropped, not summarized.
const (
	chatHistoryLimit     = 10
	voiceHistoryLimit    = 20
	coachQuestionContext = 6
	maxUploadBytes       = 32 << 20
)

type WebServerConnectProps struct {
	Logger   *logger.LogMiddleware
	Composer *prompts.Composer
	STT      *stt.Router
	Chat     *ollamaapi.Ollama
	TTS      *tts.TTS
}

type WebServer struct {
	logger   *logger.LogMiddleware
	composer *prompts.Composer
	stt      *stt.Router
	chat     *ollamaapi.Ollama
	tts      *tts.TTS
}

func Connect(args WebServerConnectProps) *WebServer {
	return &WebServer{
		logger:   args.Logger,
		composer: args.Composer,
		stt:      args.STT,
		chat:     args.Chat,
		tts:      args.TTS,
	}
}

// Router wires the endpoint handlers under an open-CORS chi router.
func (s *WebServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(s.logger.RequestLogger())

	r.Get("/health", s.Health)
	r.Post("/transcribe", s.Transcribe)
	r.Post("/chat", s.Chat)
	r.Post("/feedback", s.Feedback)
	r.Post("/voice-chat", s.VoiceChat)
	r.Post("/text-to-speech", s.TextToSpeech)
	r.Get("/voices", s.Voices)
	r.Post("/coach-feedback", s.CoachFeedback)
	r.Post("/coach-question", s.CoachQuestion)

	return r
}

func (s *WebServer) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sttStatus := s.stt.Status(ctx)
	ttsStatus := s.tts.Status()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "healthy",
		"mode":                 "voice-conversation",
		"whisper_model":        whisperapi.ModelName(),
		"stt_available":        sttStatus,
		"chat_model":           ollamaapi.Model(),
		"chat_model_available": s.chat.HasModel(ctx),
		"tts_engine":           ttsStatus.ActiveEngine,
		"tts_available":        ttsStatus,
		"voices":               tts.Voices,
		"timestamp":            time.Now().Format(time.RFC3339),
	})
}

func (s *WebServer) Transcribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("webserver/Transcribe")
	ctx, span := tracer.Start(ctx, "Transcribe")
	defer span.End()

	audioData, filename, ok := s.readAudioUpload(w, r)
	if !ok {
		return
	}

	result, err := s.stt.Transcribe(ctx, audioData, filename)
	if err != nil {
		s.logger.Logger(ctx).Error("[WebServer] Transcription error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":                 result.Text,
		"language":             result.Language,
		"language_probability": result.Confidence,
	})
}

type chatRequest struct {
	Message  string                  `json:"message"`
	Role     string                  `json:"role"`
	Language string                  `json:"language"`
	History  []ollamaapi.ChatMessage `json:"history"`
}

func (s *WebServer) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("webserver/Chat")
	ctx, span := tracer.Start(ctx, "Chat")
	defer span.End()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}

	role := prompts.ParseRole(req.Role)
	lang := prompts.Normalize(req.Language, "")
	span.SetAttributes(
		attribute.String("chat.role", string(role)),
		attribute.String("chat.language", string(lang)),
	)

	s.logger.Logger(ctx).Info("[WebServer] Chat request",
		zap.String("role", string(role)),
		zap.String("language", string(lang)),
		zap.String("message", req.Message))

	systemPrompt := prompts.GenericRolePrompt(role, lang)
	history := tail(req.History, chatHistoryLimit)

	response, err := s.chat.GetChatResponse(ctx, systemPrompt, history, req.Message, &ollamaapi.ChatOptions{
		Temperature: 0.7,
		TopP:        0.9,
		NumPredict:  150,
	})
	if err != nil {
		s.logger.Logger(ctx).Error("[WebServer] Chat error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": response,
		"role":     role,
		"language": lang,
	})
}

type feedbackRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

func (s *WebServer) Feedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("webserver/Feedback")
	ctx, span := tracer.Start(ctx, "Feedback")
	defer span.End()

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}

	lang := prompts.Normalize(req.Language, "")
	userContent := fmt.Sprintf("Learner language: %s\nLearner sentence: %s", lang, strings.TrimSpace(req.Message))

	raw, err := s.chat.GetChatResponse(ctx, prompts.FEEDBACK_SYSTEM_PROMPT, nil, userContent, &ollamaapi.ChatOptions{
		Temperature: 0.4,
		TopP:        0.9,
		NumPredict:  250,
	})
	if err != nil {
		s.logger.Logger(ctx).Error("[WebServer] Feedback error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, feedback.ParseJSON(raw, string(lang)))
}

func (s *WebServer) VoiceChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("webserver/VoiceChat")
	ctx, span := tracer.Start(ctx, "VoiceChat")
	defer span.End()

	logger := s.logger.Logger(ctx)

	// Parse once up front so the upload cap applies before any field reads.
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	scenario := r.FormValue("scenario")
	role := r.FormValue("role") // deprecated, scenario wins when present
	languageMode := r.FormValue("language")
	gender := r.FormValue("gender")
	if languageMode == "" {
		languageMode = "en"
	}
	if gender == "" {
		gender = "female"
	}
	if scenario == "" {
		scenario = string(prompts.ParseRole(role)) + "_only"
	}
	history := parseHistory(r.FormValue("history"))

	audioData, filename, ok := s.readAudioUpload(w, r)
	if !ok {
		return
	}

	transcription, err := s.stt.Transcribe(ctx, audioData, filename)
	if err != nil {
		logger.Error("[WebServer] Voice chat transcription error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	userText := transcription.Text
	if userText == "" {
		writeError(w, http.StatusBadRequest, "No speech detected")
		return
	}

	effectiveLang := prompts.Normalize(languageMode, transcription.Language)
	logger.Info("[WebServer] Voice chat turn",
		zap.String("user_text", userText),
		zap.String("scenario", scenario),
		zap.String("language_requested", languageMode),
		zap.String("language_detected", transcription.Language),
		zap.String("language_effective", string(effectiveLang)))
	span.SetAttributes(
		attribute.String("voicechat.scenario", scenario),
		attribute.String("voicechat.language", string(effectiveLang)),
	)

	// Help requests leave the role-play and go through the coaching path,
	// whatever the scenario says.
	var systemPrompt string
	if scenario == prompts.ScenarioFreeChat || prompts.IsMetaQuestion(userText) {
		span.AddEvent("Coaching prompt path")
		systemPrompt = s.composer.BuildCoachPrompt(languageMode, transcription.Language)
	} else {
		span.AddEvent("Scenario prompt path")
		systemPrompt = s.composer.BuildScriptPrompt(ctx, scenario, effectiveLang)
	}

	aiText, err := s.chat.GetChatResponse(ctx, systemPrompt, tail(history, voiceHistoryLimit), userText, &ollamaapi.ChatOptions{
		Temperature: 0.6,
		TopP:        0.95,
		NumPredict:  200,
		NumCtx:      8192,
	})
	if err != nil {
		logger.Error("[WebServer] Voice chat completion error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	audioOut, audioMime, engine, err := s.tts.GenerateSpeech(ctx, aiText, effectiveLang, gender)
	if err != nil {
		logger.Error("[WebServer] Voice chat synthesis error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "Speech generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_text":         userText,
		"ai_text":           aiText,
		"audio":             base64.StdEncoding.EncodeToString(audioOut),
		"audio_mime":        audioMime,
		"tts_engine":        engine,
		"language":          effectiveLang,
		"detected_language": prompts.AILanguageLabel(languageMode, transcription.Language),
	})
}

type ttsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Gender   string `json:"gender"`
}

func (s *WebServer) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("webserver/TextToSpeech")
	ctx, span := tracer.Start(ctx, "TextToSpeech")
	defer span.End()

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}
	if req.Gender == "" {
		req.Gender = "female"
	}

	lang := prompts.Normalize(req.Language, "")
	audioData, audioMime, engine, err := s.tts.GenerateSpeech(ctx, req.Text, lang, req.Gender)
	if err != nil {
		s.logger.Logger(ctx).Error("[WebServer] TTS error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "Speech generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"audio":      base64.StdEncoding.EncodeToString(audioData),
		"audio_mime": audioMime,
		"tts_engine": engine,
	})
}

func (s *WebServer) Voices(w http.ResponseWriter, r *http.Request) {
	status := s.tts.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"active_engine": status.ActiveEngine,
		"engines":       status,
		"voices":        tts.Voices,
	})
}

type coachFeedbackRequest struct {
	UserText string `json:"user_text"`
	AIText   string `json:"ai_text"`
	Language string `json:"language"`
	Scenario string `json:"scenario"`
}

func (s *WebServer) CoachFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("webserver/CoachFeedback")
	ctx, span := tracer.Start(ctx, "CoachFeedback")
	defer span.End()

	var req coachFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserText) == "" {
		writeError(w, http.StatusBadRequest, "No user text provided")
		return
	}
	if req.Scenario == "" {
		req.Scenario = "server_only"
	}

	lang := prompts.Normalize(req.Language, "")
	prompt := s.composer.FeedbackPrompt(lang, req.Scenario, req.UserText, req.AIText)

	raw, err := s.chat.GetChatResponse(ctx, prompts.FEEDBACK_COACH_ROLE, nil, prompt, &ollamaapi.ChatOptions{
		Temperature: 0.5,
		TopP:        0.9,
		NumPredict:  200,
	})
	if err != nil {
		s.logger.Logger(ctx).Error("[WebServer] Coach feedback error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, feedback.ParseLines(raw))
}

type coachQuestionRequest struct {
	Question            string                  `json:"question"`
	Language            string                  `json:"language"`
	Scenario            string                  `json:"scenario"`
	ConversationHistory []ollamaapi.ChatMessage `json:"conversation_history"`
}

func (s *WebServer) CoachQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("webserver/CoachQuestion")
	ctx, span := tracer.Start(ctx, "CoachQuestion")
	defer span.End()

	var req coachQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "No question provided")
		return
	}
	if req.Scenario == "" {
		req.Scenario = "server_only"
	}

	lang := prompts.Normalize(req.Language, "")
	conversationContext := formatContext(tail(req.ConversationHistory, coachQuestionContext))
	prompt := s.composer.CoachQuestionPrompt(lang, req.Scenario, conversationContext, req.Question)

	answer, err := s.chat.GetChatResponse(ctx, prompts.QUESTION_COACH_ROLE, nil, prompt, &ollamaapi.ChatOptions{
		Temperature: 0.6,
		TopP:        0.9,
		NumPredict:  150,
	})
	if err != nil {
		s.logger.Logger(ctx).Error("[WebServer] Coach question error", zap.Error(err))
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"answer": answer})
}

// readAudioUpload pulls the multipart audio field, answering 400 when absent.
func (s *WebServer) readAudioUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return nil, "", false
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return nil, "", false
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read audio file")
		return nil, "", false
	}
	return audioData, header.Filename, true
}

// parseHistory decodes client history; malformed input becomes empty history.
func parseHistory(raw string) []ollamaapi.ChatMessage {
	if raw == "" {
		return nil
	}
	var history []ollamaapi.ChatMessage
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil
	}
	return history
}

// tail keeps the most recent n turns.
func tail(history []ollamaapi.ChatMessage, n int) []ollamaapi.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// formatContext renders history turns as "You:"/"AI:" lines.
func formatContext(history []ollamaapi.ChatMessage) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		label := "AI"
		if msg.Role == ollamaapi.USER {
			label = "You"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, msg.Content))
	}
	return strings.Join(lines, "\n")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
