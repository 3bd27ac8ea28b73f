package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cdxBody = `[["timestamp","original","statuscode"],
["20150301120000","http://globex.com/","200"],
["20190612080000","http://globex.com/about","200"],
["20240115093000","http://globex.com/","200"]]`

func TestWaybackVerifyParsesCDXRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "globex.com", r.URL.Query().Get("url"))
		assert.Equal(t, "domain", r.URL.Query().Get("matchType"))
		w.Write([]byte(cdxBody))
	}))
	defer server.Close()

	adapter := NewWayback(Options{Client: newSourceClient()})
	adapter.baseURL = server.URL

	item := adapter.Verify(context.Background(), Target{Value: "globex.com", Hint: "Globex"})

	require.NotNil(t, item.Archive)
	assert.True(t, item.Found)
	assert.Equal(t, "Globex", item.Target, "captures attribute to the employer, not the domain")
	assert.Equal(t, 3, item.Archive.Captures)
	assert.Equal(t, "20150301120000", item.Archive.FirstCapture)
	assert.Equal(t, "20240115093000", item.Archive.LastCapture)
}

func TestWaybackVerifyNoCaptures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	adapter := NewWayback(Options{Client: newSourceClient()})
	adapter.baseURL = server.URL

	item := adapter.Verify(context.Background(), Target{Value: "never-archived.example"})

	require.NotNil(t, item.Archive)
	assert.False(t, item.Found)
	assert.Equal(t, 0, item.Archive.Captures)
	assert.Empty(t, item.Err)
}

func TestWaybackVerifySkipsEmptyRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["timestamp","original","statuscode"],[],["20190612080000","http://globex.com/","200"],[""]]`))
	}))
	defer server.Close()

	adapter := NewWayback(Options{Client: newSourceClient()})
	adapter.baseURL = server.URL

	item := adapter.Verify(context.Background(), Target{Value: "globex.com"})

	require.NotNil(t, item.Archive)
	assert.True(t, item.Found)
	assert.Equal(t, 1, item.Archive.Captures, "empty rows do not count as captures")
	assert.Equal(t, "20190612080000", item.Archive.FirstCapture)
	assert.Equal(t, "20190612080000", item.Archive.LastCapture)
	assert.Empty(t, item.Err)
}

func TestWaybackVerifyOnlyEmptyRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["timestamp","original","statuscode"],[]]`))
	}))
	defer server.Close()

	adapter := NewWayback(Options{Client: newSourceClient()})
	adapter.baseURL = server.URL

	item := adapter.Verify(context.Background(), Target{Value: "globex.com"})

	require.NotNil(t, item.Archive)
	assert.False(t, item.Found)
	assert.Equal(t, 0, item.Archive.Captures)
	assert.Empty(t, item.Err)
}

func TestWaybackVerifyDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	adapter := NewWayback(Options{Client: newSourceClient()})
	adapter.baseURL = server.URL

	item := adapter.Verify(context.Background(), Target{Value: "globex.com"})

	assert.False(t, item.Found)
	assert.True(t, item.Failed())
}

func TestWordOverlap(t *testing.T) {
	assert.Equal(t, 1.0, wordOverlap("globex", "globex"))
	assert.Equal(t, 0.0, wordOverlap("globex", "initech"))
	assert.InDelta(t, 0.5, wordOverlap("globex industrial", "globex holdings industrial group"), 0.01)
	assert.Equal(t, 0.0, wordOverlap("", "globex"))
}
