package background

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedGeneratorPicksCatalogTemplate(t *testing.T) {
	t.Parallel()
	c := MustLoadCatalog()
	g := NewSimulatedGenerator(c, time.Millisecond)
	g.pick = func(n int) int { return n - 1 }

	got, err := g.Generate(context.Background(), "Nature")
	require.NoError(t, err)
	assert.Equal(t, "bg8", got)
}

func TestSimulatedGeneratorHonorsCancel(t *testing.T) {
	t.Parallel()
	g := NewSimulatedGenerator(MustLoadCatalog(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "Nature")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPGenerator(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt != "Abstract" {
			t.Errorf("prompt = %q, want %q", req.Prompt, "Abstract")
		}
		json.NewEncoder(w).Encode(generateResponse{Result: "https://cdn.example.com/abstract.png"})
	}))
	defer server.Close()

	g := NewHTTPGenerator(server.URL, time.Second)
	got, err := g.Generate(context.Background(), "Abstract")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/abstract.png", got)
}

func TestHTTPGeneratorErrorStatus(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewHTTPGenerator(server.URL, time.Second).Generate(context.Background(), "Abstract")
	assert.Error(t, err)
}

func TestHTTPGeneratorEmptyResult(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":""}`))
	}))
	defer server.Close()

	_, err := NewHTTPGenerator(server.URL, time.Second).Generate(context.Background(), "Abstract")
	assert.Error(t, err)
}
