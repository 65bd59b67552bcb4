package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanekDr/music-hub/internal/queue"
)

type stubSearcher struct {
	specs []queue.TrackSpec
	err   error

	gotQuery string
	gotLimit int
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) ([]queue.TrackSpec, error) {
	s.gotQuery = query
	s.gotLimit = limit
	return s.specs, s.err
}

func TestHandleSearch(t *testing.T) {
	spotify := &stubSearcher{specs: []queue.TrackSpec{{TrackID: "sp-1", Platform: "spotify", Name: "One"}}}
	soundcloud := &stubSearcher{specs: []queue.TrackSpec{{TrackID: "42", Platform: "soundcloud", Name: "Two"}}}
	router := NewServer(spotify, soundcloud).Router()

	t.Run("defaults to spotify", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=one&limit=3", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "one", spotify.gotQuery)
		assert.Equal(t, 3, spotify.gotLimit)
		assert.Contains(t, w.Body.String(), `"sp-1"`)
	})

	t.Run("explicit platform", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=two&platform=soundcloud", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "two", soundcloud.gotQuery)
		assert.Contains(t, w.Body.String(), `"42"`)
	})

	t.Run("missing q", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported platform", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=x&platform=youtube", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=x&limit=many", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleSearch_UpstreamFailure(t *testing.T) {
	spotify := &stubSearcher{err: errors.New("connection refused")}
	router := NewServer(spotify, nil).Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=x", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream search failed")
}
