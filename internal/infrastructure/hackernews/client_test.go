package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopStories(t *testing.T) {
	t.Parallel()

	var itemCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/topstories.json":
			ids := make([]string, 0, 25)
			for i := 1; i <= 25; i++ {
				ids = append(ids, fmt.Sprint(i))
			}
			_, _ = w.Write([]byte("[" + strings.Join(ids, ",") + "]"))
		case r.URL.Path == "/item/3.json":
			itemCalls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/item/4.json":
			itemCalls.Add(1)
			_, _ = w.Write([]byte(`{"id":4,"type":"comment","text":"hi"}`))
		case r.URL.Path == "/item/5.json":
			itemCalls.Add(1)
			_, _ = w.Write([]byte(`{"id":5,"type":"story","title":"No score"}`))
		case strings.HasPrefix(r.URL.Path, "/item/"):
			itemCalls.Add(1)
			var id int
			_, _ = fmt.Sscanf(r.URL.Path, "/item/%d.json", &id)
			_, _ = fmt.Fprintf(w, `{"id":%d,"type":"story","title":"Story %d","url":"https://s/%d","score":%d}`, id, id, id, id*10)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, server.Client(), nil)
	stories, err := c.TopStories(context.Background(), 12)
	require.NoError(t, err)

	assert.EqualValues(t, 12, itemCalls.Load())
	require.Len(t, stories, 10)
	assert.Equal(t, int64(1), stories[0].ID)
	assert.Equal(t, "Story 1", stories[0].Title)
	assert.Equal(t, 10, stories[0].Score)
	assert.Equal(t, int64(5), stories[2].ID)
	assert.Equal(t, 0, stories[2].Score)
	assert.Equal(t, int64(12), stories[9].ID)
}

func TestTopStoriesListFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, server.Client(), nil).TopStories(context.Background(), 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
