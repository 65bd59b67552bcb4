package provider

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JanekDr/music-hub/internal/queue"
)

// Searcher is implemented by the platform clients.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]queue.TrackSpec, error)
}

type Server struct {
	platforms map[string]Searcher
}

func NewServer(spotify, soundcloud Searcher) *Server {
	return &Server{
		platforms: map[string]Searcher{
			"spotify":    spotify,
			"soundcloud": soundcloud,
		},
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/search", s.handleSearch)

	return r
}

// handleSearch proxies a track search to the chosen platform and returns
// payloads in the shape add_to_queue and replace_queue accept.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	platform := r.URL.Query().Get("platform")
	if platform == "" {
		platform = "spotify"
	}
	client, ok := s.platforms[platform]
	if !ok || client == nil {
		writeError(w, http.StatusBadRequest, "unsupported platform")
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	results, err := client.Search(r.Context(), query, limit)
	if err != nil {
		log.Printf("music-hub: %s search: %v", platform, err)
		writeError(w, http.StatusBadGateway, "upstream search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tracks": results})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
