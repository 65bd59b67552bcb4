package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryTokenCache keeps upstream fakes free of Redis.
type memoryTokenCache struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemoryTokenCache() *memoryTokenCache {
	return &memoryTokenCache{tokens: map[string]string{}}
}

func (m *memoryTokenCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[key], nil
}

func (m *memoryTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

func fakeSpotify(t *testing.T, tokenCalls *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		*tokenCalls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "cid", r.Form.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"spotify-tok","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer spotify-tok", r.Header.Get("Authorization"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"tracks": {"items": [{
				"id": "sp-1",
				"name": "First Song",
				"artists": [{"name": "First Artist"}, {"name": "Featured"}],
				"album": {"images": [{"url": "https://i.scdn.co/image/1"}]},
				"duration_ms": 215000,
				"external_urls": {"spotify": "https://open.spotify.com/track/sp-1"}
			}]}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSpotifySearch(t *testing.T) {
	var tokenCalls int
	upstream := fakeSpotify(t, &tokenCalls)

	client := NewSpotifyClient("cid", "secret", newMemoryTokenCache())
	client.tokenURL = upstream.URL + "/api/token"
	client.searchURL = upstream.URL + "/v1/search"

	specs, err := client.Search(context.Background(), "first", 5)
	require.NoError(t, err)
	require.Len(t, specs, 1)

	spec := specs[0]
	assert.Equal(t, "sp-1", spec.TrackID)
	assert.Equal(t, "spotify", spec.Platform)
	assert.Equal(t, "First Song", spec.Name)
	assert.Equal(t, "First Artist", spec.Author)
	assert.Equal(t, "https://open.spotify.com/track/sp-1", spec.URL)
	assert.Equal(t, 215000, spec.TrackDuration)
	assert.Equal(t, "https://i.scdn.co/image/1", spec.ImageURL)

	// Second search reuses the cached app token.
	_, err = client.Search(context.Background(), "again", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)
}

func TestSpotifySearch_UpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	cache := newMemoryTokenCache()
	cache.Set(context.Background(), spotifyTokenKey, "stale-tok", 0)

	client := NewSpotifyClient("cid", "secret", cache)
	client.searchURL = upstream.URL

	_, err := client.Search(context.Background(), "anything", 5)
	assert.ErrorContains(t, err, "spotify status 500")
}

func TestFetchClientCredentialsToken_TTL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","expires_in":600}`))
	}))
	t.Cleanup(upstream.Close)

	token, ttl, err := fetchClientCredentialsToken(context.Background(), upstream.Client(), upstream.URL, "cid", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, 9*time.Minute, ttl)
}

func TestFetchClientCredentialsToken_NoToken(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(upstream.Close)

	_, _, err := fetchClientCredentialsToken(context.Background(), upstream.Client(), upstream.URL, "cid", "secret")
	assert.ErrorContains(t, err, "no access_token")
}
