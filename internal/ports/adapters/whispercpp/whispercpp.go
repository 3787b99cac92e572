package whispercpp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

func New(binPath, modelPath, language string) *Adapter {
	if language == "" {
		language = "auto"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

func (a *Adapter) TranscribeChunk(ctx context.Context, wavPath, outPrefix string) (string, error) {
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", a.language,
		"-otxt",
		"-of", outPrefix,
		"-np",
	}
	b, err := exec.CommandContext(ctx, a.bin, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	tb, err := os.ReadFile(outPrefix + ".txt")
	if err != nil {
		return "", err
	}
	return normalizeText(string(tb)), nil
}

// normalizeText joins whisper's one-segment-per-line output into paragraphs
// and drops surrounding blank lines.
func normalizeText(s string) string {
	var lines []string
	for _, ln := range strings.Split(s, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return strings.Join(lines, "\n")
}
