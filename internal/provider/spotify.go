package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JanekDr/music-hub/internal/queue"
)

const (
	spotifyTokenURL  = "https://accounts.spotify.com/api/token"
	spotifySearchURL = "https://api.spotify.com/v1/search"

	spotifyTokenKey = "spotify:app"
)

type SpotifyClient struct {
	clientID     string
	clientSecret string
	tokenURL     string
	searchURL    string
	cache        TokenCache
	http         *http.Client
}

func NewSpotifyClient(clientID, clientSecret string, cache TokenCache) *SpotifyClient {
	return &SpotifyClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     spotifyTokenURL,
		searchURL:    spotifySearchURL,
		cache:        cache,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *SpotifyClient) appToken(ctx context.Context) (string, error) {
	token, err := c.cache.Get(ctx, spotifyTokenKey)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}

	token, ttl, err := fetchClientCredentialsToken(ctx, c.http, c.tokenURL, c.clientID, c.clientSecret)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, spotifyTokenKey, token, ttl); err != nil {
		return "", err
	}
	return token, nil
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			URI     string `json:"uri"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
			DurationMs   int `json:"duration_ms"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	} `json:"tracks"`
}

func (c *SpotifyClient) Search(ctx context.Context, query string, limit int) ([]queue.TrackSpec, error) {
	if limit <= 0 || limit > 25 {
		limit = 5
	}

	token, err := c.appToken(ctx)
	if err != nil {
		return nil, err
	}

	val := url.Values{}
	val.Set("q", query)
	val.Set("type", "track")
	val.Set("limit", fmt.Sprint(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+val.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify status %d", resp.StatusCode)
	}

	var body spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	out := make([]queue.TrackSpec, 0, len(body.Tracks.Items))
	for _, it := range body.Tracks.Items {
		author := ""
		if len(it.Artists) > 0 {
			author = it.Artists[0].Name
		}
		image := ""
		if len(it.Album.Images) > 0 {
			image = it.Album.Images[0].URL
		}
		out = append(out, queue.TrackSpec{
			TrackID:       it.ID,
			Platform:      "spotify",
			Name:          it.Name,
			Author:        author,
			URL:           it.ExternalURLs.Spotify,
			TrackDuration: it.DurationMs,
			ImageURL:      image,
		})
	}
	return out, nil
}

// fetchClientCredentialsToken exchanges app credentials for a bearer token
// and reports a TTL slightly shorter than the upstream expiry.
func fetchClientCredentialsToken(ctx context.Context, client *http.Client, tokenURL, clientID, clientSecret string) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, err
	}
	if body.AccessToken == "" {
		return "", 0, fmt.Errorf("token endpoint returned no access_token")
	}

	expiresIn := body.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	ttl := time.Duration(expiresIn-60) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	return body.AccessToken, ttl, nil
}
