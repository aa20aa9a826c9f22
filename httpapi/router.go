// Package httpapi implements the node's HTTP surface: the public
// outbox/inbox/peers/sync/karma/moderation endpoints and the
// header/body-authenticated admin endpoints, routed with
// github.com/go-chi/chi/v5 and wrapped in the same CORS and
// observability middleware shape as the teacher's gateway router.
package httpapi

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/openherd/cow/httpapi/middleware"
	"github.com/openherd/cow/karma"
	"github.com/openherd/cow/node"
	"github.com/openherd/cow/syncengine"
)

// Server holds the dependencies every handler needs.
type Server struct {
	state      *node.State
	syncEngine *syncengine.Engine
	logger     *slog.Logger
}

// Config carries the Server's dependencies and optional middleware.
type Config struct {
	State         *node.State
	SyncEngine    *syncengine.Engine
	Logger        *slog.Logger
	Observability *middleware.Observability
	AdminAssets   fs.FS
	CORS          middleware.CORSConfig
}

// New builds the chi.Router serving the entire /_openherd/* surface.
func New(cfg Config) http.Handler {
	s := &Server{state: cfg.State, syncEngine: cfg.SyncEngine, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Observability != nil {
		r.Use(cfg.Observability.Middleware("root"))
	}

	r.Route("/_openherd", func(api chi.Router) {
		api.Get("/outbox", s.getOutbox)
		api.Post("/inbox", s.postInbox)
		api.Get("/peers", s.getPeers)
		api.Post("/sync", s.postSync)

		api.Route("/karma", func(k chi.Router) {
			k.Patch("/{code}/upvote", s.patchKarmaVote(karma.Upvote))
			k.Patch("/{code}/downvote", s.patchKarmaVote(karma.Downvote))
			k.Delete("/{code}", s.deleteKarmaCode)
			k.Get("/{code}/", s.getKarmaMetadata)
			k.Post("/lookup", s.postKarmaLookup)
		})

		api.Route("/moderation", func(m chi.Router) {
			m.Post("/lookup", s.postModerationLookup)
			m.Get("/labels", s.getModerationLabels)
			m.Post("/report", s.postModerationReport)
		})

		api.Route("/admin", func(a chi.Router) {
			if cfg.AdminAssets != nil {
				a.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
					http.ServeFileFS(w, r, cfg.AdminAssets, "/")
				})
			}
			a.Post("/reports", s.postAdminReports)
			a.Post("/accept", s.requireAdminHeader(s.postAdminAccept))
			a.Delete("/delete/{id}", s.requireAdminHeader(s.deleteAdminReport))
			a.Post("/karma/codes", s.requireAdminHeader(s.postAdminKarmaCodes))
			a.Post("/karma/codes.txt", s.requireAdminHeader(s.postAdminKarmaCodesText))
			a.Post("/moderation/labels", s.requireAdminHeader(s.postAdminModerationLabels))
			a.Delete("/moderation/labels/{label}", s.requireAdminHeader(s.deleteAdminModerationLabel))
		})
	})

	if cfg.Observability != nil {
		r.Handle("/metrics", cfg.Observability.MetricsHandler())
	}

	return otelhttp.NewHandler(r, "openherd.http")
}
