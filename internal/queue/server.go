package queue

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// DB is the subset of pgxpool.Pool the queue service uses. It is satisfied
// by *pgxpool.Pool and by pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier is what the track store needs; both DB and pgx.Tx satisfy it, so
// track resolution can run inside the replace_queue transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Server struct {
	db  DB
	rdb *redis.Client
}

func NewServer(db DB, rdb *redis.Client) *Server {
	return &Server{
		db:  db,
		rdb: rdb,
	}
}

// Router returns the queue routes. The caller is expected to wrap them in an
// auth middleware that sets the user id on the request context.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/", s.handleGetQueue)
	r.Post("/add_to_queue/", s.handleAddToQueue)
	r.Delete("/remove_from_queue/", s.handleRemoveFromQueue)
	r.Post("/move_track_relative/", s.handleMoveTrackRelative)
	r.Post("/move_track_to_position/", s.handleMoveTrackToPosition)
	r.Post("/reorder_queue/", s.handleReorderQueue)
	r.Post("/replace_queue/", s.handleReplaceQueue)

	return r
}
