package driven

import "context"

// TextExtractor is the external extraction capability (OCR) that turns image
// files into text. Failures propagate as ingestion failures; the pipeline
// never indexes the empty output of a failed extraction.
type TextExtractor interface {
	// ExtractText returns the text recognised in the file at path.
	ExtractText(ctx context.Context, path string) (string, error)
}
