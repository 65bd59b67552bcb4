package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/JanekDr/music-hub/internal/queue"
)

const (
	soundcloudTokenURL  = "https://api.soundcloud.com/oauth2/token"
	soundcloudSearchURL = "https://api.soundcloud.com/tracks"

	soundcloudTokenKey = "soundcloud:app"
)

type SoundCloudClient struct {
	clientID     string
	clientSecret string
	tokenURL     string
	searchURL    string
	cache        TokenCache
	http         *http.Client
}

func NewSoundCloudClient(clientID, clientSecret string, cache TokenCache) *SoundCloudClient {
	return &SoundCloudClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     soundcloudTokenURL,
		searchURL:    soundcloudSearchURL,
		cache:        cache,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *SoundCloudClient) appToken(ctx context.Context) (string, error) {
	token, err := c.cache.Get(ctx, soundcloudTokenKey)
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
	if err := c.cache.Set(ctx, soundcloudTokenKey, token, ttl); err != nil {
		return "", err
	}
	return token, nil
}

type soundcloudTrack struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	User  struct {
		Username  string `json:"username"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
	PermalinkURL string `json:"permalink_url"`
	ArtworkURL   string `json:"artwork_url"`
	Duration     int    `json:"duration"`
}

func (c *SoundCloudClient) Search(ctx context.Context, query string, limit int) ([]queue.TrackSpec, error) {
	if limit <= 0 || limit > 25 {
		limit = 5
	}

	token, err := c.appToken(ctx)
	if err != nil {
		return nil, err
	}

	val := url.Values{}
	val.Set("q", query)
	val.Set("limit", fmt.Sprint(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+val.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("soundcloud status %d", resp.StatusCode)
	}

	var tracks []soundcloudTrack
	if err := json.NewDecoder(resp.Body).Decode(&tracks); err != nil {
		return nil, err
	}

	out := make([]queue.TrackSpec, 0, len(tracks))
	for _, tr := range tracks {
		image := tr.ArtworkURL
		if image == "" {
			image = tr.User.AvatarURL
		}
		out = append(out, queue.TrackSpec{
			TrackID:       fmt.Sprint(tr.ID),
			Platform:      "soundcloud",
			Name:          tr.Title,
			Author:        tr.User.Username,
			URL:           tr.PermalinkURL,
			TrackDuration: tr.Duration,
			ImageURL:      image,
		})
	}
	return out, nil
}
