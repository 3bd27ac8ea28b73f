package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trusthire/backend/internal/cache/memory"
)

func newTestClient(ttl time.Duration) *Client {
	return New(Config{
		Cache:  memory.New(100, nil),
		TTLFor: func(string) time.Duration { return ttl },
	})
}

func TestFetchCachesSuccessfulResponse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(time.Hour)
	req := Request{Source: "test", Category: "registry", URL: server.URL}

	resp, fromCache, err := client.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, fromCache, err = client.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second fetch must be served from cache")
}

func TestFetchDoesNotCacheErrorStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(time.Hour)
	req := Request{Source: "test", URL: server.URL}

	for i := 0; i < 2; i++ {
		_, _, err := client.Fetch(context.Background(), req)
		require.Error(t, err)

		var advErr *AdapterError
		require.ErrorAs(t, err, &advErr)
		assert.Equal(t, ErrKindStatus, advErr.Kind)
		assert.Equal(t, http.StatusInternalServerError, advErr.StatusCode)
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "failures must retry upstream")
}

func TestFetchCoalescesConcurrentIdenticalRequests(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(time.Hour)
	req := Request{Source: "test", URL: server.URL}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := client.Fetch(context.Background(), req)
			assert.NoError(t, err)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "burst should collapse into one upstream call")
}

func TestFingerprintIgnoresQueryOrder(t *testing.T) {
	client := newTestClient(time.Hour)

	a := url.Values{}
	a.Set("q", "acme")
	a.Set("page", "1")

	b := url.Values{}
	b.Set("page", "1")
	b.Set("q", "acme")

	fpA := client.fingerprint(Request{URL: "https://example.com", Query: a})
	fpB := client.fingerprint(Request{URL: "https://example.com", Query: b})
	assert.Equal(t, fpA, fpB)
}

func TestFingerprintDistinguishesBody(t *testing.T) {
	client := newTestClient(time.Hour)

	fpA := client.fingerprint(Request{URL: "https://example.com", Method: "POST", Body: []byte("one")})
	fpB := client.fingerprint(Request{URL: "https://example.com", Method: "POST", Body: []byte("two")})
	assert.NotEqual(t, fpA, fpB)
}

func TestGetJSONDecodesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"acme"}`))
	}))
	defer server.Close()

	client := newTestClient(time.Hour)

	var out struct {
		Name string `json:"name"`
	}
	fromCache, err := client.GetJSON(context.Background(), Request{Source: "test", URL: server.URL}, &out)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "acme", out.Name)
}

func TestGetJSONDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := newTestClient(time.Hour)

	var out map[string]interface{}
	_, err := client.GetJSON(context.Background(), Request{Source: "test", URL: server.URL}, &out)

	var advErr *AdapterError
	require.ErrorAs(t, err, &advErr)
	assert.Equal(t, ErrKindDecode, advErr.Kind)
}

func TestClassifyTimeout(t *testing.T) {
	err := classify("test", context.DeadlineExceeded)
	assert.Equal(t, ErrKindTimeout, err.Kind)
	assert.True(t, err.Timeout())
}
