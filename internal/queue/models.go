package queue

import (
	"time"
)

// Track is a deduplicated piece of metadata imported from an external
// platform. The pair (TrackID, Platform) identifies a track; many queue
// entries may point at the same row.
type Track struct {
	ID            string    `json:"id"`
	TrackID       string    `json:"track_id"`
	Platform      string    `json:"platform"`
	Name          string    `json:"name"`
	Author        string    `json:"author"`
	URL           string    `json:"url"`
	TrackDuration int       `json:"track_duration"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// Queue is the ordered collection owned by exactly one user. All ordering
// state lives in its entries.
type Queue struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// QueueTrack is one entry of a queue: a (queue, track, position) triple.
// Positions are dense 0-based integers, unique within a queue.
type QueueTrack struct {
	ID       string `json:"id"`
	Track    Track  `json:"track"`
	Position int    `json:"order"`
}

// TrackSpec is the caller-supplied track payload used by replace_queue and
// (optionally) add_to_queue. Platform is advisory; it is recomputed from URL
// whenever a row is written.
type TrackSpec struct {
	TrackID       string `json:"track_id"`
	Platform      string `json:"platform"`
	Name          string `json:"name"`
	Author        string `json:"author"`
	URL           string `json:"url"`
	TrackDuration int    `json:"track_duration"`
	ImageURL      string `json:"image_url"`
}

// Placement selects which side of the reference entry a relative move
// targets. The two primitives are deliberately separate: placing X above ref
// and placing X below ref are not mirror images once X's own removal shifts
// the reference.
type Placement string

const (
	PlaceAbove Placement = "above"
	PlaceBelow Placement = "below"
)

// QueueResponse is the serialized queue returned by GET /queue/.
type QueueResponse struct {
	ID     string       `json:"id"`
	Tracks []QueueTrack `json:"tracks"`
}
