// Package httptransport is the thin HTTP layer. Handlers decode, delegate
// to domain services and encode; business rules stay in the services.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fedevents/internal/event"
	eventservice "fedevents/internal/event/service"
	"fedevents/internal/event/timeline"
	"fedevents/internal/platform/middleware"
	"fedevents/internal/transport/http/shared"
	dErrors "fedevents/pkg/domain-errors"
)

// Handler aggregates the domain services behind the API.
type Handler struct {
	events        *eventservice.Service
	registrations RegistrationService
	matches       MatchService
	notifications NotificationService
	students      StudentDirectory
	news          NewsService
	logger        *slog.Logger
}

func NewHandler(
	events *eventservice.Service,
	registrations RegistrationService,
	matches MatchService,
	notifications NotificationService,
	students StudentDirectory,
	news NewsService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		events:        events,
		registrations: registrations,
		matches:       matches,
		notifications: notifications,
		students:      students,
		news:          news,
		logger:        logger,
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+name)
	}
	return id, nil
}

type createEventRequest struct {
	Titulo                 string            `json:"titulo"`
	Descripcion            string            `json:"descripcion"`
	Sexo                   string            `json:"sexo"`
	DeporteID              int64             `json:"deporte_id"`
	Categorias             []categoryPayload `json:"categorias"`
	Escenarios             []scenarioPayload `json:"escenarios"`
	Cronograma             timelinePayload   `json:"cronograma"`
	Portada                string            `json:"portada"`
	DocumentoPlanificacion string            `json:"documento_planificacion"`
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createEventRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	tl, err := req.Cronograma.toTimeline()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	params := eventservice.CreateParams{
		AdminID:     middleware.GetUserID(ctx),
		Title:       req.Titulo,
		Description: req.Descripcion,
		Sex:         event.Sex(req.Sexo),
		SportID:     req.DeporteID,
		Timeline:    tl,
		CoverImage:  req.Portada,
		PlanningDoc: req.DocumentoPlanificacion,
	}
	for _, c := range req.Categorias {
		params.Categories = append(params.Categories, event.Category{
			ID: c.ID, SportID: c.DeporteID, Name: c.Nombre, MinAge: c.EdadMin, MaxAge: c.EdadMax,
		})
	}
	for _, sc := range req.Escenarios {
		params.Scenarios = append(params.Scenarios, event.Scenario{ID: sc.ID, LocationID: sc.LugarID, Name: sc.Nombre})
	}

	ev, err := h.events.Create(ctx, params)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.events.CurrentStage(ctx, ev.ID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toEventPayload(ev, st))
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context(), r.URL.Query().Get("buscar"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	payload := make([]eventPayload, 0, len(events))
	for _, ev := range events {
		st, err := h.events.CurrentStage(r.Context(), ev.ID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		payload = append(payload, toEventPayload(ev, st))
	}
	shared.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ev, err := h.events.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.events.CurrentStage(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEventPayload(ev, st))
}

type updateEventRequest struct {
	Titulo                 *string           `json:"titulo"`
	Descripcion            *string           `json:"descripcion"`
	Sexo                   *string           `json:"sexo"`
	Categorias             []categoryPayload `json:"categorias"`
	Escenarios             []scenarioPayload `json:"escenarios"`
	Portada                *string           `json:"portada"`
	DocumentoPlanificacion *string           `json:"documento_planificacion"`
}

func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateEventRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	params := eventservice.UpdateParams{
		Title:       req.Titulo,
		Description: req.Descripcion,
		CoverImage:  req.Portada,
		PlanningDoc: req.DocumentoPlanificacion,
	}
	if req.Sexo != nil {
		s := event.Sex(*req.Sexo)
		params.Sex = &s
	}
	if req.Categorias != nil {
		params.Categories = make([]event.Category, 0, len(req.Categorias))
		for _, c := range req.Categorias {
			params.Categories = append(params.Categories, event.Category{
				ID: c.ID, SportID: c.DeporteID, Name: c.Nombre, MinAge: c.EdadMin, MaxAge: c.EdadMax,
			})
		}
	}
	if req.Escenarios != nil {
		params.Scenarios = make([]event.Scenario, 0, len(req.Escenarios))
		for _, sc := range req.Escenarios {
			params.Scenarios = append(params.Scenarios, event.Scenario{ID: sc.ID, LocationID: sc.LugarID, Name: sc.Nombre})
		}
	}

	ev, err := h.events.Update(ctx, middleware.GetUserID(ctx), id, params)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.events.CurrentStage(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEventPayload(ev, st))
}

func (h *Handler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	archived, err := h.events.Delete(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"archivado": archived})
}

func (h *Handler) handleUpdateTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req timelinePayload
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	tl, err := req.toTimeline()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	patch := timeline.Update{
		RegistrationStart: tl.RegistrationStart,
		RegistrationEnd:   tl.RegistrationEnd,
		AuditStart:        tl.AuditStart,
		AuditEnd:          tl.AuditEnd,
		ChampionshipStart: tl.ChampionshipStart,
		ChampionshipEnd:   tl.ChampionshipEnd,
	}

	ev, err := h.events.UpdateTimeline(ctx, middleware.GetUserID(ctx), id, patch)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.events.CurrentStage(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEventPayload(ev, st))
}

func (h *Handler) handleGetStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.events.CurrentStage(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	body := map[string]any{"etapa": string(st.Status())}
	if st.Window != nil {
		body["ventana"] = map[string]string{
			"inicio": st.Window.Start.Format(dateLayout),
			"fin":    st.Window.End.Format(dateLayout),
		}
	}
	shared.WriteJSON(w, http.StatusOK, body)
}

type advanceRequest struct {
	Transicion    string `json:"transicion"`
	EstadoDestino string `json:"estado_destino"`
}

func (h *Handler) handleAdvanceStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req advanceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	var ev *event.Event
	if req.EstadoDestino != "" {
		ev, err = h.events.AdvanceTo(ctx, middleware.GetUserID(ctx), id, event.Status(req.EstadoDestino))
	} else {
		ev, err = h.events.Advance(ctx, middleware.GetUserID(ctx), id, req.Transicion)
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"estado": string(ev.Status)})
}

type inviteRequest struct {
	InstitucionID int64 `json:"institucion_id"`
	ContactoID    int64 `json:"contacto_id"`
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req inviteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	inv, err := h.events.Invite(ctx, middleware.GetUserID(ctx), id, req.InstitucionID, req.ContactoID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toInvitationPayload(inv))
}

func (h *Handler) handleUninvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, err := pathID(r, "institutionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.events.Uninvite(ctx, middleware.GetUserID(ctx), id, institutionID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type answerRequest struct {
	Aceptar bool `json:"aceptar"`
}

func (h *Handler) handleAnswerInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID := middleware.GetInstitutionID(ctx)
	if institutionID == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "an institution identity is required"))
		return
	}
	var req answerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	inv, err := h.events.Answer(ctx, middleware.GetUserID(ctx), id, institutionID, req.Aceptar)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toInvitationPayload(inv))
}

type extendRequest struct {
	InstitucionID int64   `json:"institucion_id"`
	FechaFin      *string `json:"fecha_fin"`
}

func (h *Handler) handleExtendRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req extendRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	newEnd, err := parseDate(req.FechaFin)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if newEnd == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fecha_fin is required"))
		return
	}
	inv, err := h.events.ExtendRegistration(ctx, middleware.GetUserID(ctx), id, req.InstitucionID, *newEnd)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toInvitationPayload(inv))
}

func (h *Handler) handleMyInvitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	institutionID := middleware.GetInstitutionID(ctx)
	if institutionID == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "an institution identity is required"))
		return
	}
	items, err := h.events.InvitationsFor(ctx, institutionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	type entry struct {
		Evento     eventPayload      `json:"evento"`
		Invitacion invitationPayload `json:"invitacion"`
	}
	out := make([]entry, 0, len(items))
	for _, item := range items {
		st, err := h.events.CurrentStage(ctx, item.Event.ID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		out = append(out, entry{
			Evento:     toEventPayload(item.Event, st),
			Invitacion: toInvitationPayload(&item.Invitation),
		})
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
