package queue

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// The operation surface. Each mutation runs in a single transaction that
// starts by locking the owning queue's row, so concurrent mutations on the
// same queue serialize while different queues never block each other. Lock
// waits are bounded; a timeout surfaces as ErrConflict and the client may
// retry.

const lockTimeout = `SET LOCAL lock_timeout = '5s'`

// lockQueueForUser resolves the user's queue and takes its row lock.
func lockQueueForUser(ctx context.Context, tx pgx.Tx, userID string) (string, error) {
	if _, err := tx.Exec(ctx, lockTimeout); err != nil {
		return "", translateDBError(err)
	}
	var queueID string
	err := tx.QueryRow(ctx, `
		SELECT id FROM queues WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&queueID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", translateDBError(err)
	}
	return queueID, nil
}

// AddToQueue appends the track identified by its external id to the tail of
// the user's queue. Platform narrows resolution when supplied.
func (s *Server) AddToQueue(ctx context.Context, userID, trackID, platform string) (QueueTrack, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return QueueTrack{}, translateDBError(err)
	}
	defer tx.Rollback(ctx)

	queueID, err := lockQueueForUser(ctx, tx, userID)
	if err != nil {
		return QueueTrack{}, err
	}

	trackRowID, err := resolveExistingTrack(ctx, tx, trackID, platform)
	if err != nil {
		return QueueTrack{}, translateDBError(err)
	}

	entryID, position, err := appendEntry(ctx, tx, queueID, trackRowID)
	if err != nil {
		return QueueTrack{}, translateDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return QueueTrack{}, translateDBError(err)
	}

	qt := QueueTrack{ID: entryID, Position: position}
	s.publishEvent(ctx, map[string]any{
		"type": "queue.track_added",
		"payload": map[string]any{
			"queueId":      queueID,
			"queueTrackId": entryID,
			"position":     position,
		},
	})
	return qt, nil
}

// RemoveFromQueue deletes one entry of the user's queue and restores
// contiguity. A foreign entry id reports not-found, never forbidden.
func (s *Server) RemoveFromQueue(ctx context.Context, userID, entryID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return translateDBError(err)
	}
	defer tx.Rollback(ctx)

	queueID, err := lockQueueForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	position, err := removeEntry(ctx, tx, queueID, entryID)
	if err != nil {
		return translateDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateDBError(err)
	}

	s.publishEvent(ctx, map[string]any{
		"type": "queue.track_removed",
		"payload": map[string]any{
			"queueId":      queueID,
			"queueTrackId": entryID,
			"position":     position,
		},
	})
	return nil
}

// MoveTrackRelative places the entry immediately above or below the target
// entry. Both entries must belong to the user's queue.
func (s *Server) MoveTrackRelative(ctx context.Context, userID, entryID, targetID string, placement Placement) error {
	if entryID == targetID {
		return validationf("track_id and target_track_id must differ")
	}
	if placement != PlaceAbove && placement != PlaceBelow {
		return validationf("placement must be %q or %q", PlaceAbove, PlaceBelow)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return translateDBError(err)
	}
	defer tx.Rollback(ctx)

	queueID, err := lockQueueForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	var from, to int
	if placement == PlaceAbove {
		from, to, err = placeEntryBefore(ctx, tx, queueID, entryID, targetID)
	} else {
		from, to, err = placeEntryAfter(ctx, tx, queueID, entryID, targetID)
	}
	if err != nil {
		return translateDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateDBError(err)
	}

	s.publishEvent(ctx, map[string]any{
		"type": "queue.track_moved",
		"payload": map[string]any{
			"queueId":      queueID,
			"queueTrackId": entryID,
			"from":         from,
			"to":           to,
		},
	})
	return nil
}

// MoveTrackToPosition moves the entry to an absolute index, clamped to the
// queue bounds.
func (s *Server) MoveTrackToPosition(ctx context.Context, userID, entryID string, position int) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return translateDBError(err)
	}
	defer tx.Rollback(ctx)

	queueID, err := lockQueueForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	from, to, err := moveEntryToPosition(ctx, tx, queueID, entryID, position)
	if err != nil {
		return translateDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateDBError(err)
	}

	s.publishEvent(ctx, map[string]any{
		"type": "queue.track_moved",
		"payload": map[string]any{
			"queueId":      queueID,
			"queueTrackId": entryID,
			"from":         from,
			"to":           to,
		},
	})
	return nil
}

// ReorderQueue applies a full permutation of the queue's entry ids.
func (s *Server) ReorderQueue(ctx context.Context, userID string, entryIDs []string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return translateDBError(err)
	}
	defer tx.Rollback(ctx)

	queueID, err := lockQueueForUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := reorderAll(ctx, tx, queueID, entryIDs); err != nil {
		return translateDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateDBError(err)
	}

	s.publishEvent(ctx, map[string]any{
		"type": "queue.reordered",
		"payload": map[string]any{
			"queueId":       queueID,
			"queueTrackIds": entryIDs,
		},
	})
	return nil
}

// ReplaceQueue swaps the queue's entire contents for the given specs,
// resolving or creating tracks inside the same transaction. All-or-nothing:
// one bad spec rolls back everything, including the initial delete.
func (s *Server) ReplaceQueue(ctx context.Context, userID string, specs []TrackSpec) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, translateDBError(err)
	}
	defer tx.Rollback(ctx)

	queueID, err := lockQueueForUser(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM queue_tracks WHERE queue_id = $1
	`, queueID); err != nil {
		return 0, translateDBError(err)
	}

	for i, spec := range specs {
		trackRowID, err := resolveOrCreateTrack(ctx, tx, spec)
		if err != nil {
			return 0, translateDBError(err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO queue_tracks (queue_id, track_id, position)
			VALUES ($1, $2, $3)
		`, queueID, trackRowID, i); err != nil {
			return 0, translateDBError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, translateDBError(err)
	}

	s.publishEvent(ctx, map[string]any{
		"type": "queue.replaced",
		"payload": map[string]any{
			"queueId": queueID,
			"count":   len(specs),
		},
	})
	return len(specs), nil
}

// GetQueue returns the user's queue with entries in play order.
func (s *Server) GetQueue(ctx context.Context, userID string) (QueueResponse, error) {
	var resp QueueResponse
	err := s.db.QueryRow(ctx, `
		SELECT id FROM queues WHERE user_id = $1
	`, userID).Scan(&resp.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return QueueResponse{}, ErrNotFound
	}
	if err != nil {
		return QueueResponse{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT qt.id, qt.position,
		       t.id, t.track_id, t.platform, t.name, t.author, t.url, t.track_duration, t.image_url
		FROM queue_tracks qt
		JOIN tracks t ON t.id = qt.track_id
		WHERE qt.queue_id = $1
		ORDER BY qt.position ASC
	`, resp.ID)
	if err != nil {
		return QueueResponse{}, err
	}
	defer rows.Close()

	resp.Tracks = []QueueTrack{}
	for rows.Next() {
		var qt QueueTrack
		if err := rows.Scan(
			&qt.ID, &qt.Position,
			&qt.Track.ID, &qt.Track.TrackID, &qt.Track.Platform, &qt.Track.Name,
			&qt.Track.Author, &qt.Track.URL, &qt.Track.TrackDuration, &qt.Track.ImageURL,
		); err != nil {
			return QueueResponse{}, err
		}
		resp.Tracks = append(resp.Tracks, qt)
	}
	if err := rows.Err(); err != nil {
		return QueueResponse{}, err
	}
	return resp, nil
}
