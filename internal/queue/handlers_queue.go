package queue

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/JanekDr/music-hub/internal/auth"
)

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	resp, err := s.GetQueue(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, "get queue", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddToQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		TrackID  string `json:"track_id"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.TrackID == "" {
		writeError(w, http.StatusBadRequest, "track_id is required")
		return
	}

	if _, err := s.AddToQueue(r.Context(), userID, body.TrackID, body.Platform); err != nil {
		s.writeServiceError(w, "add to queue", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (s *Server) handleRemoveFromQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		QueueTrackID string `json:"queue_track_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.QueueTrackID == "" {
		writeError(w, http.StatusBadRequest, "queue_track_id is required")
		return
	}

	if err := s.RemoveFromQueue(r.Context(), userID, body.QueueTrackID); err != nil {
		s.writeServiceError(w, "remove from queue", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveTrackRelative(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		TrackID       string `json:"track_id"`
		TargetTrackID string `json:"target_track_id"`
		Placement     string `json:"placement"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.TrackID == "" || body.TargetTrackID == "" {
		writeError(w, http.StatusBadRequest, "track_id and target_track_id are required")
		return
	}

	// Historical clients never sent a placement; they always meant "above".
	placement := Placement(body.Placement)
	if placement == "" {
		placement = PlaceAbove
	}

	if err := s.MoveTrackRelative(r.Context(), userID, body.TrackID, body.TargetTrackID, placement); err != nil {
		s.writeServiceError(w, "move track relative", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMoveTrackToPosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		QueueTrackID string `json:"queue_track_id"`
		Position     *int   `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.QueueTrackID == "" {
		writeError(w, http.StatusBadRequest, "queue_track_id is required")
		return
	}
	if body.Position == nil {
		writeError(w, http.StatusBadRequest, "position is required")
		return
	}

	if err := s.MoveTrackToPosition(r.Context(), userID, body.QueueTrackID, *body.Position); err != nil {
		s.writeServiceError(w, "move track to position", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleReorderQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		QueueTrackIDs []string `json:"queue_track_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "queue_track_ids must be a list of ids")
		return
	}
	if body.QueueTrackIDs == nil {
		writeError(w, http.StatusBadRequest, "queue_track_ids must be a list of ids")
		return
	}

	if err := s.ReorderQueue(r.Context(), userID, body.QueueTrackIDs); err != nil {
		s.writeServiceError(w, "reorder queue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleReplaceQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		Tracks []TrackSpec `json:"tracks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "tracks must be a list of track objects")
		return
	}
	if body.Tracks == nil {
		writeError(w, http.StatusBadRequest, "tracks must be a list of track objects")
		return
	}

	count, err := s.ReplaceQueue(r.Context(), userID, body.Tracks)
	if err != nil {
		s.writeServiceError(w, "replace queue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "replaced", "count": count})
}

func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, "concurrent modification, retry")
	default:
		log.Printf("music-hub: %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "database error")
	}
}
