package queue

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// The ordering engine. Every function here runs inside a transaction that
// already holds the owning queue's row lock, so reads of positions are
// stable for the duration of the mutation. Positions are renumbered, never
// merely swapped: the committed set of positions is always {0..n-1}.

// appendEntry inserts a new entry at the tail. Never touches existing rows.
func appendEntry(ctx context.Context, tx pgx.Tx, queueID, trackRowID string) (string, int, error) {
	var id string
	var position int
	err := tx.QueryRow(ctx, `
		INSERT INTO queue_tracks (queue_id, track_id, position)
		VALUES (
			$1, $2,
			COALESCE((SELECT MAX(position)+1 FROM queue_tracks WHERE queue_id = $1), 0)
		)
		RETURNING id, position
	`, queueID, trackRowID).Scan(&id, &position)
	if err != nil {
		return "", 0, err
	}
	return id, position, nil
}

// entryPosition resolves an entry scoped to its queue. A foreign or unknown
// id is ErrNotFound either way.
func entryPosition(ctx context.Context, tx pgx.Tx, queueID, entryID string) (int, error) {
	var position int
	err := tx.QueryRow(ctx, `
		SELECT position FROM queue_tracks
		WHERE id = $1 AND queue_id = $2
	`, entryID, queueID).Scan(&position)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return position, nil
}

// removeEntry deletes the entry and closes the gap it leaves.
func removeEntry(ctx context.Context, tx pgx.Tx, queueID, entryID string) (int, error) {
	position, err := entryPosition(ctx, tx, queueID, entryID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM queue_tracks
		WHERE id = $1 AND queue_id = $2
	`, entryID, queueID); err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE queue_tracks
		SET position = position - 1
		WHERE queue_id = $1 AND position > $2
	`, queueID, position); err != nil {
		return 0, err
	}

	return position, nil
}

// moveEntryToPosition removes the entry from its slot and reinserts it at
// target (clamped to [0, n-1]), shifting everything in between by one.
func moveEntryToPosition(ctx context.Context, tx pgx.Tx, queueID, entryID string, target int) (from, to int, err error) {
	current, err := entryPosition(ctx, tx, queueID, entryID)
	if err != nil {
		return 0, 0, err
	}

	var total int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM queue_tracks WHERE queue_id = $1
	`, queueID).Scan(&total); err != nil {
		return 0, 0, err
	}

	if target < 0 {
		target = 0
	}
	if target >= total {
		target = total - 1
	}
	if target == current {
		return current, current, nil
	}

	if target > current {
		_, err = tx.Exec(ctx, `
			UPDATE queue_tracks
			SET position = position - 1
			WHERE queue_id = $1
			  AND position > $2
			  AND position <= $3
		`, queueID, current, target)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE queue_tracks
			SET position = position + 1
			WHERE queue_id = $1
			  AND position >= $3
			  AND position < $2
		`, queueID, current, target)
	}
	if err != nil {
		return 0, 0, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE queue_tracks
		SET position = $3
		WHERE id = $2 AND queue_id = $1
	`, queueID, entryID, target); err != nil {
		return 0, 0, err
	}

	return current, target, nil
}

// placeEntryBefore moves the entry immediately before the reference.
// placeEntryAfter moves it immediately after. The two are distinct
// primitives: once the entry's own removal shifts everything past it down by
// one, the target index depends on which side of the reference it started.
func placeEntryBefore(ctx context.Context, tx pgx.Tx, queueID, entryID, refID string) (int, int, error) {
	refPos, entryPos, err := relativePositions(ctx, tx, queueID, entryID, refID)
	if err != nil {
		return 0, 0, err
	}
	target := refPos
	if entryPos < refPos {
		target = refPos - 1
	}
	return moveEntryToPosition(ctx, tx, queueID, entryID, target)
}

func placeEntryAfter(ctx context.Context, tx pgx.Tx, queueID, entryID, refID string) (int, int, error) {
	refPos, entryPos, err := relativePositions(ctx, tx, queueID, entryID, refID)
	if err != nil {
		return 0, 0, err
	}
	target := refPos
	if entryPos > refPos {
		target = refPos + 1
	}
	return moveEntryToPosition(ctx, tx, queueID, entryID, target)
}

func relativePositions(ctx context.Context, tx pgx.Tx, queueID, entryID, refID string) (refPos, entryPos int, err error) {
	entryPos, err = entryPosition(ctx, tx, queueID, entryID)
	if err != nil {
		return 0, 0, err
	}
	refPos, err = entryPosition(ctx, tx, queueID, refID)
	if err != nil {
		return 0, 0, err
	}
	return refPos, entryPos, nil
}

// reorderAll assigns position = index for an exact permutation of the
// queue's entry ids. Anything short of a permutation is rejected before any
// row is touched.
func reorderAll(ctx context.Context, tx pgx.Tx, queueID string, entryIDs []string) error {
	rows, err := tx.Query(ctx, `
		SELECT id FROM queue_tracks WHERE queue_id = $1
	`, queueID)
	if err != nil {
		return err
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(entryIDs) != len(existing) {
		return validationf("queue_track_ids must contain all %d entries, got %d", len(existing), len(entryIDs))
	}
	seen := make(map[string]bool, len(entryIDs))
	for _, id := range entryIDs {
		if !existing[id] {
			return validationf("unknown queue track id: %s", id)
		}
		if seen[id] {
			return validationf("duplicate queue track id: %s", id)
		}
		seen[id] = true
	}

	for i, id := range entryIDs {
		if _, err := tx.Exec(ctx, `
			UPDATE queue_tracks
			SET position = $3
			WHERE id = $2 AND queue_id = $1
		`, queueID, id, i); err != nil {
			return err
		}
	}
	return nil
}
