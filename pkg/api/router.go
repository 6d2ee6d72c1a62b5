// Package api wires the EOSS HTTP surface: routing, request identity,
// access logging and the mapping of unknown routes and methods onto the
// hardened 403/405 responses.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/pkg/api/handlers"
	"github.com/ericlee/eoss/pkg/config"
	"github.com/ericlee/eoss/pkg/lock"
	"github.com/ericlee/eoss/pkg/metrics"
)

// Loggers bundles the per-subsystem loggers the HTTP layer hands out.
type Loggers struct {
	Server *logger.Logger       // eoss.log
	Access *logger.AccessLogger // access.log
	MDS    *logger.Logger       // mds_client.log
	Object *logger.Logger       // object_client.log
}

// NewRouter builds the service router. m may be nil when metrics are
// disabled.
func NewRouter(cfg config.Config, logs Loggers, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog(logs.Access, m))
	r.Use(middleware.Recoverer)

	locks := lock.NewManager(cfg.ObjectLockPath, logs.Object)
	objects := handlers.NewObjectHandler(cfg, locks, m, logs.Server, logs.MDS, logs.Object)
	stats := handlers.NewStatsHandler(cfg, logs.Server, logs.MDS)

	r.Route("/eoss/v1", func(r chi.Router) {
		r.Get("/object/{filename}", objects.Get)
		r.Method(http.MethodHead, "/object/{filename}", http.HandlerFunc(objects.Head))
		r.Put("/object/{filename}", objects.Put)
		r.Delete("/object/{filename}", objects.Delete)
		r.Get("/stats", stats.Get)
	})

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// unknown routes answer 403 with an empty body: the bare framework 404
	// is reserved for objects that do not exist
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("Bad Method"))
	})

	return r
}
