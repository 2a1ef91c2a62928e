package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
)

// fakeIndex is a configurable DocumentIndex test double.
type fakeIndex struct {
	mu sync.Mutex

	addErr    error
	searchErr error
	deleteErr error
	listErr   error
	statsErr  error

	addCount   int
	hits       []domain.SearchHit
	deleted    bool
	summaries  []domain.DocumentSummary
	stats      domain.IndexStats
	addedReqs  []driven.IndexRequest
	addRelease chan struct{}
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		stats: domain.IndexStats{"status": "healthy"},
	}
}

func (f *fakeIndex) Add(_ context.Context, req driven.IndexRequest) (int, error) {
	if f.addRelease != nil {
		<-f.addRelease
	}
	f.mu.Lock()
	f.addedReqs = append(f.addedReqs, req)
	f.mu.Unlock()
	if f.addErr != nil {
		return 0, f.addErr
	}
	return f.addCount, nil
}

func (f *fakeIndex) Search(context.Context, string, int, domain.SearchFilter) ([]domain.SearchHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeIndex) Delete(context.Context, string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.deleted, nil
}

func (f *fakeIndex) List(context.Context) ([]domain.DocumentSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.summaries, nil
}

func (f *fakeIndex) Stats(context.Context) (domain.IndexStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeIndex) Close() error { return nil }

func (f *fakeIndex) added() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.addedReqs))
	for i, req := range f.addedReqs {
		out[i] = req.DocumentID
	}
	return out
}

func (f *fakeIndex) lastAdd() driven.IndexRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.addedReqs) == 0 {
		return driven.IndexRequest{}
	}
	return f.addedReqs[len(f.addedReqs)-1]
}

// unavailableErr builds the transport-failure error the remote client
// produces.
func unavailableErr(op string) error {
	return &domain.RemoteError{
		Kind:    domain.RemoteUnavailable,
		Op:      op,
		Message: "peer unreachable",
	}
}

// rejectedErr builds the peer-rejection error the remote client produces.
func rejectedErr(op string, status int, message string) error {
	return &domain.RemoteError{
		Kind:       domain.RemoteRejected,
		Op:         op,
		StatusCode: status,
		Message:    message,
	}
}

// fakeExtractor returns canned OCR output.
type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// fakeLLM captures the prompts it was asked to answer.
type fakeLLM struct {
	mu           sync.Mutex
	answer       string
	err          error
	lastPrompt   string
	lastSystem   string
	lastPassages []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt, systemPrompt string) (string, error) {
	f.mu.Lock()
	f.lastPrompt = prompt
	f.lastSystem = systemPrompt
	f.mu.Unlock()
	return f.answer, f.err
}

func (f *fakeLLM) GenerateWithContext(_ context.Context, question string, passages []string) (string, error) {
	f.mu.Lock()
	f.lastPrompt = question
	f.lastPassages = passages
	f.mu.Unlock()
	return f.answer, f.err
}

func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }
