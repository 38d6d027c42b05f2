package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fedevents/internal/platform/metrics"
	"fedevents/internal/platform/middleware"
)

// NewRouter wires every API route behind the shared middleware chain.
func NewRouter(h *Handler, m *metrics.Metrics, logger *slog.Logger, health http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Identity)

	r.Get("/healthz", health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Route("/eventos", func(r chi.Router) {
			r.Post("/", h.handleCreateEvent)
			r.Get("/", h.handleListEvents)
			r.Get("/invitaciones", h.handleMyInvitations)

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", h.handleGetEvent)
				r.Put("/", h.handleUpdateEvent)
				r.Delete("/", h.handleDeleteEvent)
				r.Put("/cronograma", h.handleUpdateTimeline)
				r.Get("/etapa", h.handleGetStage)
				r.Post("/etapa/avanzar", h.handleAdvanceStage)

				r.Post("/invitaciones", h.handleInvite)
				r.Delete("/invitaciones/{institutionID}", h.handleUninvite)
				r.Post("/invitaciones/responder", h.handleAnswerInvitation)
				r.Post("/invitaciones/extender", h.handleExtendRegistration)

				r.Get("/mi-inscripcion", h.handleGetMyRegistration)
				r.Put("/mi-inscripcion", h.handleUpdateMyRegistration)
				r.Post("/mi-inscripcion/documentos", h.handleUploadDocuments)
				r.Get("/mi-inscripcion/completitud", h.handleCompleteness)

				r.Route("/inscripciones/{institutionID}", func(r chi.Router) {
					r.Post("/documentos/{documentID}/revision", h.handleReviewDocument)
					r.Post("/auditoria", h.handleDecide)
					r.Put("/bloqueo", h.handleSetLock)
				})

				r.Get("/calendario", h.handleGetSchedule)
				r.Post("/calendario", h.handleAddMatch)
				r.Get("/posiciones", h.handleGetStandings)
				r.Post("/partidos/{matchID}/resultado", h.handleRegisterResult)
				r.Post("/partidos/{matchID}/noticia", h.handlePublishMatchNews)
				r.Get("/partidos/{matchID}/desenlaces", h.handleMatchOutcomes)
				r.Get("/noticias", h.handleListNews)
			})
		})

		r.Get("/tipos-documento", h.handleListDocumentTypes)

		r.Route("/estudiantes", func(r chi.Router) {
			r.Post("/", h.handleCreateStudent)
			r.Get("/", h.handleListStudents)
			r.Get("/{studentID}", h.handleGetStudent)
			r.Put("/{studentID}", h.handleUpdateStudent)
			r.Delete("/{studentID}", h.handleDeleteStudent)
			r.Post("/{studentID}/restaurar", h.handleRestoreStudent)
		})

		r.Route("/notificaciones", func(r chi.Router) {
			r.Get("/", h.handleListNotifications)
			r.Get("/resumen", h.handleNotificationSummary)
			r.Put("/{notificationID}/leido", h.handleMarkNotification)
			r.Put("/leido", h.handleMarkAllNotifications)
			r.Delete("/{notificationID}", h.handleRemoveNotification)
			r.Delete("/", h.handleClearNotifications)
		})
	})

	return r
}
