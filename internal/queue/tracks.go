package queue

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
)

// derivePlatform recomputes the platform from the playable URL. It runs on
// every write, so a caller-supplied platform never survives a save.
func derivePlatform(url string) string {
	switch {
	case strings.Contains(url, "spotify"):
		return "spotify"
	case strings.Contains(url, "soundcloud"):
		return "soundcloud"
	default:
		return "unknown"
	}
}

// resolveExistingTrack looks up a track by its external id. Platform narrows
// the match when supplied; without it the oldest row wins. Lookup-only: no
// metadata validation on this path.
func resolveExistingTrack(ctx context.Context, q querier, trackID, platform string) (string, error) {
	var id string
	var err error
	if platform != "" {
		err = q.QueryRow(ctx, `
			SELECT id FROM tracks
			WHERE track_id = $1 AND platform = $2
		`, trackID, platform).Scan(&id)
	} else {
		err = q.QueryRow(ctx, `
			SELECT id FROM tracks
			WHERE track_id = $1
			ORDER BY created_at ASC
			LIMIT 1
		`, trackID).Scan(&id)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// resolveOrCreateTrack returns the row id for the (track_id, platform) pair,
// creating the track from spec when no row exists. The create path validates
// the required metadata fields; a lookup hit skips validation entirely.
func resolveOrCreateTrack(ctx context.Context, q querier, spec TrackSpec) (string, error) {
	if spec.TrackID == "" {
		return "", validationf("track_id is required")
	}

	platform := spec.Platform
	if spec.URL != "" {
		platform = derivePlatform(spec.URL)
	}

	var id string
	err := q.QueryRow(ctx, `
		SELECT id FROM tracks
		WHERE track_id = $1 AND platform = $2
	`, spec.TrackID, platform).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	if missing := missingTrackFields(spec); len(missing) > 0 {
		return "", validationf("track %s: missing required fields: %s", spec.TrackID, strings.Join(missing, ", "))
	}

	// Two concurrent creates of the same track race on the unique key; the
	// benign upsert makes both return the surviving row.
	err = q.QueryRow(ctx, `
		INSERT INTO tracks (track_id, platform, name, author, url, track_duration, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (track_id, platform) DO UPDATE SET platform = EXCLUDED.platform
		RETURNING id
	`, spec.TrackID, derivePlatform(spec.URL), spec.Name, spec.Author, spec.URL, spec.TrackDuration, spec.ImageURL).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func missingTrackFields(spec TrackSpec) []string {
	var missing []string
	if spec.Name == "" {
		missing = append(missing, "name")
	}
	if spec.Author == "" {
		missing = append(missing, "author")
	}
	if spec.URL == "" {
		missing = append(missing, "url")
	}
	if spec.TrackDuration <= 0 {
		missing = append(missing, "track_duration")
	}
	if spec.ImageURL == "" {
		missing = append(missing, "image_url")
	}
	return missing
}
