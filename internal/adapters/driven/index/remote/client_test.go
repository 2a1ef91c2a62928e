package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{BaseURL: baseURL, RequestsPerSecond: -1}, nil)
}

func TestAdd_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/documents/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.txt", header.Filename)
		assert.Equal(t, "doc-1", r.FormValue("document_id"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(uploadResponse{ChunksIndexed: 7}))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	count, err := client.Add(context.Background(), driven.IndexRequest{
		DocumentID: "doc-1",
		Content:    []byte("file bytes"),
		Filename:   "notes.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestAdd_PeerRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unsupported file type", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Add(context.Background(), driven.IndexRequest{DocumentID: "doc-1", Content: []byte("x")})
	require.Error(t, err)
	assert.True(t, domain.IsRemoteRejected(err))
	assert.False(t, domain.IsRemoteUnavailable(err))

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.StatusCode)
	assert.Contains(t, remoteErr.Message, "unsupported file type")
}

func TestAdd_PeerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)
	_, err := client.Add(context.Background(), driven.IndexRequest{DocumentID: "doc-1", Content: []byte("x")})
	require.Error(t, err)
	assert.True(t, domain.IsRemoteUnavailable(err))
	assert.False(t, domain.IsRemoteRejected(err))
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deployment notes", req.Query)
		assert.Equal(t, 3, req.K)
		assert.Equal(t, "doc-1", req.DocumentID)

		resp := searchResponse{Results: []searchResult{
			{Content: "first hit", Source: "notes.txt", Metadata: map[string]string{"document_id": "doc-1"}},
			{Content: "second hit"},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	hits, err := client.Search(context.Background(), "deployment notes", 3, domain.SearchFilter{"document_id": "doc-1"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first hit", hits[0].Content)
	assert.Equal(t, "notes.txt", hits[0].Source)
	assert.Equal(t, "doc-1", hits[0].DocumentID)
	assert.Empty(t, hits[1].DocumentID)
}

func TestSearch_DefaultK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.DefaultSearchK, req.K)
		require.NoError(t, json.NewEncoder(w).Encode(searchResponse{}))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	hits, err := client.Search(context.Background(), "q", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDelete_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantDeleted bool
		wantErr     bool
	}{
		{name: "deleted", status: http.StatusOK, wantDeleted: true},
		{name: "absent maps to false", status: http.StatusNotFound, wantDeleted: false},
		{name: "server error surfaces", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodDelete, r.Method)
				require.Equal(t, "/documents/doc-1", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			deleted, err := client.Delete(context.Background(), "doc-1")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsRemoteRejected(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDeleted, deleted)
		})
	}
}

func TestList_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents", r.URL.Path)
		resp := listResponse{Documents: []domain.DocumentSummary{
			{DocumentID: "doc-1", OriginalFilename: "notes.txt", TotalChunks: 4},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	docs, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].DocumentID)
	assert.Equal(t, 4, docs[0].TotalChunks)
}

func TestStats_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"status":       "healthy",
			"total_chunks": 42,
		}))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", stats["status"])
}

func TestStats_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)
	_, err := client.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsRemoteUnavailable(err))
}
