package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_GenerateNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "search_query: leather bag", req.Input)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": [][]float64{{3, 4}}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "")
	res, err := p.Generate(context.Background(), "leather bag", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, res.Embedding.Values[0], 1e-6)
	assert.InDelta(t, 0.8, res.Embedding.Values[1], 1e-6)
}

func TestOllamaProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"model not found"}`},
		{name: "error field", status: http.StatusOK, body: `{"error":"overloaded"}`},
		{name: "empty embeddings", status: http.StatusOK, body: `{"embeddings":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaProvider(srv.URL, "nomic-embed-text").Generate(context.Background(), "x", TaskRetrievalDocument)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
	}{
		{name: "zero", in: []float32{0, 0, 0}},
		{name: "unit", in: []float32{1, 0}},
		{name: "skewed", in: []float32{10, -2, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := normalizeVector(tt.in)
			var mag float64
			for _, v := range out {
				mag += float64(v) * float64(v)
			}
			if tt.name == "zero" {
				assert.Equal(t, tt.in, out)
				return
			}
			assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-5)
		})
	}
}
