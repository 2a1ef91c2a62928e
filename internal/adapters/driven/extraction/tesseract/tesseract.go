// Package tesseract provides image text extraction via the tesseract CLI.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// DefaultBinary is the tesseract executable looked up on PATH.
const DefaultBinary = "tesseract"

// Extractor runs the tesseract OCR binary against image files.
type Extractor struct {
	binary string
}

// New creates an extractor using the given binary path, or DefaultBinary when
// empty.
func New(binary string) *Extractor {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Extractor{binary: binary}
}

// ExtractText runs OCR on the file at path and returns the recognised text.
// Failures wrap domain.ErrExtractionFailed so callers can mark ingestion as
// failed without inspecting exec details.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	// "stdout" makes tesseract write recognised text to standard output
	// instead of an output file.
	cmd := exec.CommandContext(ctx, e.binary, path, "stdout")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%w: tesseract: %s", domain.ErrExtractionFailed, detail)
	}

	return strings.TrimSpace(stdout.String()), nil
}
