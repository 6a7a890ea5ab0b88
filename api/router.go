package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Reaishma/Healthcare-informatics-solution/dashboard"
)

type handler struct {
	svc    *dashboard.Service
	logger *zap.Logger
}

type routerOptions struct {
	logger  *zap.Logger
	ws      http.Handler
	metrics http.Handler
}

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

func WithLogger(logger *zap.Logger) RouterOption {
	return func(o *routerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWebsocket mounts the live event stream on /ws.
func WithWebsocket(h http.Handler) RouterOption {
	return func(o *routerOptions) { o.ws = h }
}

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) RouterOption {
	return func(o *routerOptions) { o.metrics = h }
}

// NewRouter builds the HTTP surface of the dashboard.
func NewRouter(svc *dashboard.Service, options ...RouterOption) http.Handler {
	opts := routerOptions{logger: zap.NewNop()}
	for _, option := range options {
		option(&opts)
	}
	h := &handler{svc: svc, logger: opts.logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(opts.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.ws != nil {
		r.Handle("/ws", opts.ws)
	}
	if opts.metrics != nil {
		r.Handle("/metrics", opts.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard/stats", h.stats)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", h.summary)
			r.Get("/advisories", h.advisories)
			r.Get("/export", h.export)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Get("/", h.listWorkflows)
			r.Post("/", h.createWorkflow)
			r.Get("/{id}", h.getWorkflow)
			r.Put("/{id}", h.updateWorkflow)
			r.Delete("/{id}", h.deleteWorkflow)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.listTasks)
			r.Post("/", h.createTask)
			r.Get("/{id}", h.getTask)
			r.Put("/{id}", h.updateTask)
			r.Delete("/{id}", h.deleteTask)
		})

		r.Route("/patient-flow-stages", func(r chi.Router) {
			r.Get("/", h.listStages)
			r.Post("/", h.createStage)
			r.Get("/{id}", h.getStage)
			r.Put("/{id}", h.updateStage)
			r.Delete("/{id}", h.deleteStage)
			r.Post("/{id}/adjust", h.adjustStage)
		})

		r.Route("/user-stories", func(r chi.Router) {
			r.Get("/", h.listStories)
			r.Post("/", h.createStory)
			r.Get("/{id}", h.getStory)
			r.Put("/{id}", h.updateStory)
			r.Delete("/{id}", h.deleteStory)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.listSchedules)
			r.Post("/", h.createSchedule)
			r.Get("/{id}", h.getSchedule)
			r.Put("/{id}", h.updateSchedule)
			r.Delete("/{id}", h.deleteSchedule)
		})

		r.Get("/users", h.listUsers)
		r.Get("/users/role/{role}", h.listUsersByRole)

		// {id} is the recipient for the listings and the notification for /read.
		r.Post("/notifications", h.createNotification)
		r.Route("/notifications/{id}", func(r chi.Router) {
			r.Get("/", h.listNotifications)
			r.Get("/unread", h.listUnreadNotifications)
			r.Put("/read", h.markNotificationRead)
		})
	})

	return r
}
