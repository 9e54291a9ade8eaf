// Package prompts selects and assembles the system instructions sent to the
// chat engine: role/language normalization, meta-request detection, scripted
// role-play prompts and the strict bilingual coaching prompt.
package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cafelingo/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a supported output language.
type Language string

const (
	LangEnglish Language = "en"
	LangSpanish Language = "es"
)

// Role is a cafe role-play persona.
type Role string

const (
	RoleServer   Role = "server"
	RoleCustomer Role = "customer"
	RoleHost     Role = "host"
)

// ScenarioFreeChat selects the unscripted coaching mode.
const ScenarioFreeChat = "free_chat"

const maxScriptLines = 5

// Normalize resolves a requested language plus a detector hint to a concrete
// supported language. Total over arbitrary input; unknown values become English.
func Normalize(requested, detected string) Language {
	req := strings.ToLower(strings.TrimSpace(requested))
	if req == "" {
		req = "en"
	}

	switch req {
	case "auto", "mixed", "detect":
		cand := strings.ToLower(detected)
		if len(cand) > 2 {
			cand = cand[:2]
		}
		if cand == "en" || cand == "es" {
			return Language(cand)
		}
		return LangEnglish
	case "en":
		return LangEnglish
	case "es":
		return LangSpanish
	}
	return LangEnglish
}

// AILanguageLabel returns the language label exposed to clients. It only ever
// returns "en", "es" or "mixed", never a raw detector code.
func AILanguageLabel(requested, detected string) string {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "en":
		return "en"
	case "es":
		return "es"
	}
	det := strings.ToLower(detected)
	if det == "en" || det == "es" {
		return det
	}
	return "mixed"
}

// ParseRole maps a client-supplied role string to a known persona,
// defaulting to the server.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer
	case RoleHost:
		return RoleHost
	}
	return RoleServer
}

// IsMetaQuestion reports whether a turn is a help request rather than an
// in-character reply. Literal case-insensitive substring match only.
func IsMetaQuestion(text string) bool {
	lowered := strings.ToLower(text)
	for _, pattern := range metaPatternsEN {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	for _, pattern := range metaPatternsES {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// Script is one scenario's per-language script data.
type Script struct {
	AIRole  string   `json:"ai_role"`
	AILines []string `json:"ai_lines"`
	Tips    string   `json:"tips"`
}

// ScriptTable maps scenario name -> language -> script.
type ScriptTable struct {
	Scenarios map[string]map[string]Script `json:"scenarios"`
}

// LoadScripts reads a script table from a JSON file.
func LoadScripts(path string) (*ScriptTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read scripts file: %w", err)
	}

	var table ScriptTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("could not parse scripts file: %w", err)
	}
	if table.Scenarios == nil {
		table.Scenarios = map[string]map[string]Script{}
	}
	return &table, nil
}

type ComposerConnectProps struct {
	Logger      *logger.LogMiddleware
	ScriptsPath string
}

// Composer builds system prompts from the script table and the template set.
type Composer struct {
	logger  *logger.LogMiddleware
	scripts *ScriptTable
}

func Connect(ctx context.Context, args ComposerConnectProps) *Composer {
	tracer := otel.Tracer("prompts/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	path := args.ScriptsPath
	if path == "" {
		path = os.Getenv("SCRIPTS_PATH")
	}
	if path == "" {
		path = "scripts.json"
	}
	span.SetAttributes(attribute.String("scripts.path", path))

	table, err := LoadScripts(path)
	if err != nil {
		// A missing script table degrades to generic role prompts.
		args.Logger.Logger(ctx).Error("[Prompts] Failed to load scripts, scenarios will use generic prompts",
			zap.Error(err),
			zap.String("path", path))
		span.RecordError(err)
		table = &ScriptTable{Scenarios: map[string]map[string]Script{}}
	} else {
		args.Logger.Logger(ctx).Info("[Prompts] Scripts loaded",
			zap.Int("scenarios", len(table.Scenarios)),
			zap.String("path", path))
	}

	return &Composer{logger: args.Logger, scripts: table}
}

// GenericRolePrompt returns the per-role voice prompt for a language.
// Unknown roles fall back to the server persona.
func GenericRolePrompt(role Role, lang Language) string {
	switch role {
	case RoleCustomer:
		if lang == LangSpanish {
			return VOICE_PROMPT_CUSTOMER_ES
		}
		return VOICE_PROMPT_CUSTOMER_EN
	case RoleHost:
		if lang == LangSpanish {
			return VOICE_PROMPT_HOST_ES
		}
		return VOICE_PROMPT_HOST_EN
	}
	if lang == LangSpanish {
		return VOICE_PROMPT_SERVER_ES
	}
	return VOICE_PROMPT_SERVER_EN
}

// BuildScriptPrompt assembles the system prompt for a scripted scenario.
// A lookup miss falls back to the generic server prompt for the language.
func (c *Composer) BuildScriptPrompt(ctx context.Context, scenario string, lang Language) string {
	tracer := otel.Tracer("prompts/BuildScriptPrompt")
	_, span := tracer.Start(ctx, "BuildScriptPrompt")
	defer span.End()

	span.SetAttributes(
		attribute.String("scenario", scenario),
		attribute.String("language", string(lang)),
	)

	if scenario == ScenarioFreeChat {
		return c.BuildCoachPrompt(string(lang), "")
	}

	script, ok := c.scripts.Scenarios[scenario][string(lang)]
	if !ok || len(script.AILines) == 0 {
		span.AddEvent("Script lookup miss, using generic prompt")
		return GenericRolePrompt(RoleServer, lang)
	}

	lines := script.AILines
	if len(lines) > maxScriptLines {
		lines = lines[:maxScriptLines]
	}
	quoted := make([]string, 0, len(lines))
	for _, line := range lines {
		quoted = append(quoted, fmt.Sprintf("  - %q", line))
	}
	exampleLines := strings.Join(quoted, "\n")

	aiRole := script.AIRole
	if aiRole == "" {
		aiRole = string(RoleServer)
	}

	if lang == LangSpanish {
		return fmt.Sprintf(SCRIPT_PROMPT_ES, aiRole, exampleLines, aiRole)
	}
	return fmt.Sprintf(SCRIPT_PROMPT_EN, aiRole, exampleLines, aiRole)
}

// BuildCoachPrompt assembles the free-chat coaching prompt with the strict
// bilingual clamp. languageMode is the raw requested mode (en, es or auto),
// detected is the detector's best guess for the learner's language.
func (c *Composer) BuildCoachPrompt(languageMode, detected string) string {
	var profile string
	switch strings.ToLower(languageMode) {
	case "en":
		profile = COACH_LANG_PROFILE_EN
	case "es":
		profile = COACH_LANG_PROFILE_ES
	default:
		code := strings.ToLower(detected)
		profile = fmt.Sprintf(COACH_LANG_PROFILE_AUTO, code, languageDisplayName(code))
	}

	return COACH_BASE + profile + COACH_HARD_CONSTRAINT + COACH_META_BEHAVIOUR
}

// FeedbackPrompt builds the line-format coach feedback request.
func (c *Composer) FeedbackPrompt(lang Language, scenario, userText, aiText string) string {
	if lang == LangSpanish {
		return fmt.Sprintf(COACH_FEEDBACK_PROMPT_ES, scenario, lang, userText, aiText)
	}
	return fmt.Sprintf(COACH_FEEDBACK_PROMPT_EN, scenario, lang, userText, aiText)
}

// CoachQuestionPrompt builds the coach Q&A request around recent context.
func (c *Composer) CoachQuestionPrompt(lang Language, scenario, conversationContext, question string) string {
	if conversationContext == "" {
		if lang == LangSpanish {
			conversationContext = "Aún no hay conversación"
		} else {
			conversationContext = "No conversation yet"
		}
	}
	if lang == LangSpanish {
		return fmt.Sprintf(COACH_QUESTION_PROMPT_ES, scenario, conversationContext, question)
	}
	return fmt.Sprintf(COACH_QUESTION_PROMPT_EN, scenario, conversationContext, question)
}

// languageDisplayName turns a detector code into an English language name
// for embedding in the mixed-mode clamp ("da" -> "Danish").
func languageDisplayName(code string) string {
	if code == "" {
		return "unknown"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return name
}
