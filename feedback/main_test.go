package feedback

import (
	"reflect"
	"testing"
)

func TestParseJSONEmbedded(t *testing.T) {
	raw := `Sure! Here is your feedback:
{
  "grammar": {"score": "8/10", "feedback": "Nice word order.", "correction": "I would like a coffee."},
  "pronunciation": {"focus_words": ["coffee", "please"], "tips": "Stress the first syllable of coffee."},
  "conversation_tip": "Try asking about sizes."
}
Keep practicing!`

	record := ParseJSON(raw, "en")

	if record.Grammar.Score != "8/10" {
		t.Errorf("score = %q", record.Grammar.Score)
	}
	if record.Grammar.Correction != "I would like a coffee." {
		t.Errorf("correction = %q", record.Grammar.Correction)
	}
	if !reflect.DeepEqual(record.Pronunciation.FocusWords, []string{"coffee", "please"}) {
		t.Errorf("focus words = %v", record.Pronunciation.FocusWords)
	}
	if record.ConversationTip != "Try asking about sizes." {
		t.Errorf("conversation tip = %q", record.ConversationTip)
	}
	if record.Raw != raw {
		t.Error("raw text not preserved")
	}
	if record.Language != "en" {
		t.Errorf("language = %q", record.Language)
	}
}

func TestParseJSONNoBraces(t *testing.T) {
	record := ParseJSON("  You did great, keep going!  ", "es")

	if record.Grammar.Score != "Unknown" {
		t.Errorf("score = %q, want Unknown", record.Grammar.Score)
	}
	if record.Grammar.Feedback != "You did great, keep going!" {
		t.Errorf("feedback = %q", record.Grammar.Feedback)
	}
	if record.Pronunciation.FocusWords == nil {
		t.Error("focus words should never be nil")
	}
	if record.Language != "es" {
		t.Errorf("language = %q", record.Language)
	}
}

func TestParseJSONMalformed(t *testing.T) {
	raw := `{"grammar": not json at all}`
	record := ParseJSON(raw, "en")

	if record.Grammar.Score != "Unknown" {
		t.Errorf("score = %q, want Unknown on parse failure", record.Grammar.Score)
	}
	if record.Raw != raw {
		t.Error("raw text not preserved on parse failure")
	}
	if record.Pronunciation.FocusWords == nil {
		t.Error("focus words should never be nil")
	}
}

func TestParseLinesEnglish(t *testing.T) {
	raw := `Grammar Score: 7/10
Grammar Feedback: Watch your articles.
Correction: I'd like a coffee, please.
Focus Words: pan, agua
Pronunciation Tip: Roll the r in agua.
Conversation Tip: Ask about pastries next.`

	record := ParseLines(raw)

	if record.GrammarScore != "7/10" {
		t.Errorf("grammar score = %q", record.GrammarScore)
	}
	if record.GrammarFeedback != "Watch your articles." {
		t.Errorf("grammar feedback = %q", record.GrammarFeedback)
	}
	if record.Correction != "I'd like a coffee, please." {
		t.Errorf("correction = %q", record.Correction)
	}
	if !reflect.DeepEqual(record.FocusWords, []string{"pan", "agua"}) {
		t.Errorf("focus words = %v", record.FocusWords)
	}
	if record.PronunciationTip != "Roll the r in agua." {
		t.Errorf("pronunciation tip = %q", record.PronunciationTip)
	}
	if record.ConversationTip != "Ask about pastries next." {
		t.Errorf("conversation tip = %q", record.ConversationTip)
	}
}

func TestParseLinesSpanish(t *testing.T) {
	raw := `Puntuación: 9/10
Retroalimentación de gramática: Muy bien.
Corrección: Ninguna
Palabras clave: café, leche
Pronunciación: Suaviza la c de café.
Conversación: Pregunta por el menú.`

	record := ParseLines(raw)

	if record.GrammarScore != "9/10" {
		t.Errorf("grammar score = %q", record.GrammarScore)
	}
	if record.Correction != "" {
		t.Errorf("correction = %q, sentinel should map to empty", record.Correction)
	}
	if !reflect.DeepEqual(record.FocusWords, []string{"café", "leche"}) {
		t.Errorf("focus words = %v", record.FocusWords)
	}
	if record.PronunciationTip != "Suaviza la c de café." {
		t.Errorf("pronunciation tip = %q", record.PronunciationTip)
	}
}

func TestParseLinesCorrectionSentinels(t *testing.T) {
	for _, sentinel := range []string{"Good!", "¡Bien!", "ninguna"} {
		record := ParseLines("Correction: " + sentinel)
		if record.Correction != "" {
			t.Errorf("Correction %q should normalize to empty, got %q", sentinel, record.Correction)
		}
	}
}

func TestParseLinesGarbage(t *testing.T) {
	record := ParseLines("this has no labels at all\njust prose")

	if record.GrammarScore != "" || record.Correction != "" {
		t.Error("unlabeled text should leave zero values")
	}
	if record.FocusWords == nil || len(record.FocusWords) != 0 {
		t.Errorf("focus words = %v, want empty non-nil slice", record.FocusWords)
	}
}
