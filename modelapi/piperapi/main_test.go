package piperapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cafelingo/logger"
)

func testPiper(t *testing.T) *Piper {
	t.Helper()
	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})
	return Connect(context.Background(), PiperConnectProps{Logger: logMiddleware})
}

func TestReadyRequiresModel(t *testing.T) {
	t.Setenv("PIPER_MODEL_PATH", "")

	if testPiper(t).Ready() {
		t.Error("Ready should be false without a model path")
	}
}

func TestReadyRequiresModelFile(t *testing.T) {
	t.Setenv("PIPER_MODEL_PATH", filepath.Join(t.TempDir(), "missing.onnx"))

	if testPiper(t).Ready() {
		t.Error("Ready should be false when the model file does not exist")
	}
}

func TestReadyRequiresBinary(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "voice.onnx")
	if err := os.WriteFile(modelPath, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PIPER_MODEL_PATH", modelPath)
	t.Setenv("PIPER_BINARY", filepath.Join(t.TempDir(), "no-such-binary"))

	if testPiper(t).Ready() {
		t.Error("Ready should be false when the binary cannot be resolved")
	}
}

func TestSynthesizeNotReady(t *testing.T) {
	t.Setenv("PIPER_MODEL_PATH", "")

	_, _, err := testPiper(t).Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected an error when the engine is not ready")
	}
}

// TestSynthesize drives the full subprocess path with a stand-in script that
// writes fixed bytes to the requested output file.
func TestSynthesize(t *testing.T) {
	dir := t.TempDir()

	modelPath := filepath.Join(dir, "voice.onnx")
	if err := os.WriteFile(modelPath, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}

	script := filepath.Join(dir, "fake-piper")
	body := "#!/bin/sh\ncat > /dev/null\nprintf 'RIFFfake-wav-data' > \"$4\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PIPER_MODEL_PATH", modelPath)
	t.Setenv("PIPER_BINARY", script)
	t.Setenv("PIPER_SPEAKER_ID", "")

	audioData, mime, err := testPiper(t).Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if mime != "audio/wav" {
		t.Errorf("mime = %q, want audio/wav", mime)
	}
	if string(audioData) != "RIFFfake-wav-data" {
		t.Errorf("audio = %q", audioData)
	}
}

func TestSynthesizeEmptyOutput(t *testing.T) {
	dir := t.TempDir()

	modelPath := filepath.Join(dir, "voice.onnx")
	if err := os.WriteFile(modelPath, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}

	script := filepath.Join(dir, "fake-piper")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ncat > /dev/null\n: > \"$4\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PIPER_MODEL_PATH", modelPath)
	t.Setenv("PIPER_BINARY", script)

	_, _, err := testPiper(t).Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected an error for empty synthesis output")
	}
}
