// Package router wires the roster handlers onto a chi router.
//
// Route table:
//
//	POST   /add-student          → add a student to a section
//	POST   /login                → check a PRN / password pair
//	DELETE /remove-student/{prn} → remove a student from a section
//	GET    /students             → list a section, filtered by branch/year
//	GET    /prns                 → list the PRNs of a section
//	GET    /healthz              → storage ping
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aanand-mishra/roster-api/internal/auth"
	"github.com/aanand-mishra/roster-api/internal/http/handlers/health"
	"github.com/aanand-mishra/roster-api/internal/http/handlers/student"
	"github.com/aanand-mishra/roster-api/internal/section"
	"github.com/aanand-mishra/roster-api/internal/storage"
)

// Deps are the shared dependencies handed to every handler factory.
type Deps struct {
	Store    storage.Storage
	Sections *section.Set
	Hasher   *auth.Hasher
	Log      *slog.Logger
}

// New returns the HTTP handler for the whole API.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&slogFormatter{log: d.Log}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Post("/add-student", student.New(d.Store, d.Sections, d.Hasher))
	r.Post("/login", student.Login(d.Store, d.Sections, d.Hasher))
	r.Delete("/remove-student/{prn}", student.Remove(d.Store, d.Sections))
	r.Get("/students", student.GetList(d.Store, d.Sections))
	r.Get("/prns", student.GetPRNs(d.Store, d.Sections))
	r.Get("/healthz", health.Check(d.Store))

	return r
}
