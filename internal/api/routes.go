package api

import (
	"net/http"

	"ghlsync/internal/auth"
	"ghlsync/internal/db"
	"ghlsync/internal/events"
	"ghlsync/internal/ghl"
	"ghlsync/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Dependencies struct {
	DB          *db.Pool
	Bus         *events.Bus
	Feeds       *service.FeedService
	Submissions *service.SubmissionService
	Client      *ghl.Client
	Metadata    *ghl.MetadataCache
	Log         *zap.Logger
	JWTSecret   string
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	// Add request logging middleware
	r.Use(RequestLogger(d.Log))

	r.Get("/healthz", d.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Add JWT authentication middleware (optional - allows anonymous access)
		jwtConfig := auth.NewJWTConfig(d.JWTSecret)
		r.Use(jwtConfig.Middleware)

		// Form endpoints
		r.Post("/forms", d.createForm)
		r.Get("/forms/{formID}", d.getForm)
		r.Post("/forms/{formID}/submissions", d.createSubmission)
		r.Get("/forms/{formID}/feeds", d.listFeeds)
		r.Post("/forms/{formID}/feeds", d.createFeed)

		// Submission endpoints
		r.Get("/submissions/{id}", d.getSubmission)
		r.Post("/submissions/{id}/resync", d.resyncSubmission)

		// Feed endpoints
		r.Get("/feeds/{id}", d.getFeed)
		r.Put("/feeds/{id}", d.updateFeed)

		// Sync event endpoints
		r.Get("/events/recent", d.recentEvents)

		// CRM metadata endpoints
		r.Get("/ghl/pipelines", d.listPipelines)
		r.Get("/ghl/pipelines/{id}/stages", d.listPipelineStages)
		r.Get("/ghl/custom-fields", d.listCustomFields)
		r.Get("/ghl/contact-fields", d.listContactFields)
		r.Get("/ghl/users", d.listUsers)
		r.Post("/ghl/test-connection", d.testConnection)
		r.Post("/ghl/cache/refresh", d.refreshCache)
	})

	return r
}

func (d Dependencies) healthz(w http.ResponseWriter, r *http.Request) {
	if err := d.DB.Ping(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "db_unavailable", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
