package unsplash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "time management", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Client-ID key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"results":[{"urls":{"regular":"https://img.example/1.jpg"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", srv.Client())
	url, err := c.FindByQuery(context.Background(), "time management")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.jpg", url)
}

func TestFindByQuery_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", srv.Client())
	_, err := c.FindByQuery(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrNoImage)
}
