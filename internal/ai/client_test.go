package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"people-search-platform/internal/config"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		MaxExponent: 5,
		JitterBound: 0,
	}
}

func newTestClient(server *httptest.Server) *Client {
	cfg := &config.Config{
		AIBaseURL:     server.URL,
		AIAPIKey:      "test-key",
		EmbedModel:    "text-embedding-3-small",
		GenerateModel: "gpt-4o-mini",
	}
	return NewClient(cfg, WithHTTPClient(server.Client()), WithPolicy(fastPolicy()))
}

func TestEmbedRetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 4 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":[{"embedding":[0.1,0.2],"index":0}]}`)
	}))
	defer server.Close()

	vectors, err := newTestClient(server).Embed(context.Background(), []string{"query"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, int32(5), attempts.Load(), "success on the fifth attempt must not be preceded by a terminal error")
}

func TestEmbedExhaustsAttempts(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server).Embed(context.Background(), []string{"query"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted 5 attempts")
	assert.Equal(t, int32(5), attempts.Load(), "no sixth attempt after exhaustion")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestEmbedClientErrorFailsImmediately(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"model not found"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server).Embed(context.Background(), []string{"query"})
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "4xx other than 429 must not be retried")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "model not found")
}

func TestEmbedServerErrorIsRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data":[{"embedding":[1],"index":0}]}`)
	}))
	defer server.Close()

	_, err := newTestClient(server).Embed(context.Background(), []string{"query"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestEmbedMalformedBodyFailsImmediately(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	_, err := newTestClient(server).Embed(context.Background(), []string{"query"})
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "decode failures are terminal")

	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[1],"index":0}]}`)
	}))
	defer server.Close()

	_, err := newTestClient(server).Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Contains(t, decErr.Error(), "expected 2 vectors")
}

func TestEmbedOrdersVectorsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[2],"index":1},{"embedding":[1],"index":0}]}`)
	}))
	defer server.Close()

	vectors, err := newTestClient(server).Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vectors[0])
	assert.Equal(t, []float32{2}, vectors[1])
}

func TestEmbedNoInputs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	}))
	defer server.Close()

	vectors, err := newTestClient(server).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedSendsCorrelationHeader(t *testing.T) {
	var header atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header.Store(r.Header.Get("x-correlation-id"))
		fmt.Fprint(w, `{"data":[{"embedding":[1],"index":0}]}`)
	}))
	defer server.Close()

	ctx := WithCorrelationID(context.Background(), "req-42")
	_, err := newTestClient(server).Embed(ctx, []string{"query"})
	require.NoError(t, err)
	assert.Equal(t, "req-42", header.Load())
}

func TestGenerateReturnsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Ada matches best."}},{"message":{"role":"assistant","content":"ignored"}}]}`)
	}))
	defer server.Close()

	answer, err := newTestClient(server).Generate(context.Background(), []Message{
		{Role: "user", Content: "who?"},
	}, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Ada matches best.", answer)
}

func TestGenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	_, err := newTestClient(server).Generate(context.Background(), []Message{{Role: "user", Content: "who?"}}, GenerateOptions{})
	require.Error(t, err)

	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
}
