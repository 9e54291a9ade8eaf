// Package feedback parses the semi-structured coaching output of the chat
// engine into fixed records. Parse failures degrade to defaults, never errors.
package feedback

import (
	"encoding/json"
	"strings"
)

type Grammar struct {
	Score      string `json:"score"`
	Feedback   string `json:"feedback"`
	Correction string `json:"correction"`
}

type Pronunciation struct {
	FocusWords []string `json:"focus_words"`
	Tips       string   `json:"tips"`
}

// Record is the structured feedback schema returned by the feedback endpoint.
type Record struct {
	Grammar         Grammar       `json:"grammar"`
	Pronunciation   Pronunciation `json:"pronunciation"`
	ConversationTip string        `json:"conversation_tip"`
	Raw             string        `json:"raw"`
	Language        string        `json:"language"`
}

// LineRecord is the flat schema produced by the line-oriented coach feedback.
type LineRecord struct {
	GrammarScore     string   `json:"grammar_score"`
	GrammarFeedback  string   `json:"grammar_feedback"`
	Correction       string   `json:"correction"`
	FocusWords       []string `json:"focus_words"`
	PronunciationTip string   `json:"pronunciation_tip"`
	ConversationTip  string   `json:"conversation_tip"`
}

// Correction values meaning "nothing to fix"; normalized to empty.
var noChangeSentinels = map[string]bool{
	"good!":   true,
	"¡bien!":  true,
	"ninguna": true,
}

// ParseJSON extracts the first {...} block from raw model output and parses
// it as a feedback record. When extraction or parsing fails the raw text
// lands in the grammar feedback field. Raw text and language are always
// attached to the result.
func ParseJSON(raw, lang string) Record {
	record := Record{
		Grammar:       Grammar{Score: "Unknown", Feedback: strings.TrimSpace(raw)},
		Pronunciation: Pronunciation{FocusWords: []string{}},
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end != -1 && end > start {
		var parsed Record
		if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err == nil {
			record = parsed
			if record.Pronunciation.FocusWords == nil {
				record.Pronunciation.FocusWords = []string{}
			}
		}
	}

	record.Raw = raw
	record.Language = lang
	return record
}

// ParseLines parses key: value lines bilingually into a LineRecord.
// Unmatched lines are ignored; absent labels keep their zero value.
func ParseLines(raw string) LineRecord {
	record := LineRecord{FocusWords: []string{}}

	for _, line := range strings.Split(raw, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch {
		case strings.Contains(key, "grammar score") || strings.Contains(key, "puntuación"):
			record.GrammarScore = value
		case strings.Contains(key, "grammar feedback") || strings.Contains(key, "retroalimentación de gramática"):
			record.GrammarFeedback = value
		case strings.Contains(key, "correction") || strings.Contains(key, "corrección"):
			if noChangeSentinels[strings.ToLower(value)] {
				value = ""
			}
			record.Correction = value
		case strings.Contains(key, "focus words") || strings.Contains(key, "palabras clave"):
			record.FocusWords = splitFocusWords(value)
		case strings.Contains(key, "pronunciation") || strings.Contains(key, "pronunciación"):
			record.PronunciationTip = value
		case strings.Contains(key, "conversation") || strings.Contains(key, "conversación"):
			record.ConversationTip = value
		}
	}

	return record
}

func splitFocusWords(value string) []string {
	words := []string{}
	for _, word := range strings.Split(value, ",") {
		word = strings.TrimSpace(word)
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}
