package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSoundCloud(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"sc-tok","expires_in":3600}`))
	})
	mux.HandleFunc("/tracks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OAuth sc-tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{
				"id": 123456,
				"title": "With Artwork",
				"user": {"username": "dj-one", "avatar_url": "https://sc.example/avatar1"},
				"permalink_url": "https://soundcloud.com/dj-one/with-artwork",
				"artwork_url": "https://sc.example/artwork1",
				"duration": 180000
			},
			{
				"id": 654321,
				"title": "No Artwork",
				"user": {"username": "dj-two", "avatar_url": "https://sc.example/avatar2"},
				"permalink_url": "https://soundcloud.com/dj-two/no-artwork",
				"artwork_url": "",
				"duration": 90000
			}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSoundCloudSearch(t *testing.T) {
	upstream := fakeSoundCloud(t)

	client := NewSoundCloudClient("cid", "secret", newMemoryTokenCache())
	client.tokenURL = upstream.URL + "/oauth2/token"
	client.searchURL = upstream.URL + "/tracks"

	specs, err := client.Search(context.Background(), "dj", 5)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "123456", specs[0].TrackID)
	assert.Equal(t, "soundcloud", specs[0].Platform)
	assert.Equal(t, "With Artwork", specs[0].Name)
	assert.Equal(t, "dj-one", specs[0].Author)
	assert.Equal(t, "https://sc.example/artwork1", specs[0].ImageURL)

	// Avatar stands in when a track carries no artwork.
	assert.Equal(t, "https://sc.example/avatar2", specs[1].ImageURL)
	assert.Equal(t, 90000, specs[1].TrackDuration)
}

func TestSoundCloudSearch_TokenEndpointDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(upstream.Close)

	client := NewSoundCloudClient("cid", "secret", newMemoryTokenCache())
	client.tokenURL = upstream.URL

	_, err := client.Search(context.Background(), "dj", 5)
	assert.ErrorContains(t, err, "token endpoint status 503")
}
