// Package api exposes the message store and memo tools over HTTP.
package api

import (
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/rcliao/memoya/internal/memo"
	"github.com/rcliao/memoya/internal/room"
	"github.com/rcliao/memoya/internal/store"
)

// NewRouter creates the chi router with all routes and middleware.
// exec may be nil, in which case the tool routes are not mounted and record
// messages carry no memo status. rooms resolves the room for that status when
// a request names none; nil means the default room.
func NewRouter(st *store.Partitioned, exec *memo.Executor, rooms *room.Manager, token string, logger *log.Logger) *chi.Mux {
	if logger == nil {
		logger = log.Default()
	}
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	msgH := NewMessageHandler(st)
	if exec != nil {
		msgH.memos = exec.Repo()
		msgH.rooms = rooms
	}

	r.Get("/health", msgH.Health)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", msgH.List)
			r.Post("/", msgH.Create)
			r.Get("/search", msgH.Search)
			r.Get("/{id}", msgH.Get)
			r.Patch("/{id}", msgH.Update)
			r.Delete("/{id}", msgH.Delete)
			r.Post("/{id}/restore", msgH.Restore)
			r.Post("/{id}/permanent", msgH.MarkPermanent)
			r.Delete("/{id}/purge", msgH.Purge)
		})
		r.Get("/partitions", msgH.Partitions)
		r.Get("/trash", msgH.Trash)
		r.Get("/stats", msgH.Stats)
		r.Post("/migrate", msgH.Migrate)

		if exec != nil {
			toolH := NewToolHandler(exec)
			r.Get("/tools", toolH.List)
			r.Post("/tools/{name}", toolH.Execute)
			r.Post("/actions/approve", toolH.Approve)
		}
	})

	return r
}
