package httptransport

import (
	"net/http"
	"time"

	"fedevents/internal/match"
	"fedevents/internal/platform/middleware"
	"fedevents/internal/transport/http/shared"
	dErrors "fedevents/pkg/domain-errors"
)

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	matches, err := h.matches.Schedule(r.Context(), eventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]matchPayload, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchPayload(m))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetStandings(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rows, meta, err := h.matches.Progress(r.Context(), eventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	type rowPayload struct {
		EquipoID   int64  `json:"equipo_id"`
		Nombre     string `json:"nombre"`
		PJ         int    `json:"pj"`
		PG         int    `json:"pg"`
		PE         int    `json:"pe"`
		PP         int    `json:"pp"`
		GF         int    `json:"gf"`
		GC         int    `json:"gc"`
		Diferencia int    `json:"diferencia"`
		Puntos     int    `json:"puntos"`
	}
	table := make([]rowPayload, 0, len(rows))
	for _, row := range rows {
		table = append(table, rowPayload{
			EquipoID:   row.TeamID,
			Nombre:     row.Name,
			PJ:         row.Played,
			PG:         row.Won,
			PE:         row.Drawn,
			PP:         row.Lost,
			GF:         row.GoalsFor,
			GC:         row.GoalsAgainst,
			Diferencia: row.Diff(),
			Puntos:     row.Points,
		})
	}

	completed := make([]string, 0, len(meta.CompletedPhases))
	for _, phase := range meta.CompletedPhases {
		completed = append(completed, string(phase))
	}
	metaPayload := map[string]any{
		"tiene_resultados":  meta.HasResults,
		"fases_completadas": completed,
	}
	if meta.NextPhase != nil {
		metaPayload["proxima_fase"] = string(*meta.NextPhase)
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"tabla": table,
		"meta":  metaPayload,
	})
}

type addMatchRequest struct {
	Fase            string          `json:"fase"`
	Local           teamSlotPayload `json:"local"`
	Visitante       teamSlotPayload `json:"visitante"`
	EscenarioID     *int64          `json:"escenario_id"`
	FechaProgramada *string         `json:"fecha_programada"`
}

func (h *Handler) handleAddMatch(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req addMatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	m := &match.Match{
		EventID:    eventID,
		Phase:      match.Phase(req.Fase),
		Local:      fromSlotPayload(req.Local),
		Visitor:    fromSlotPayload(req.Visitante),
		ScenarioID: req.EscenarioID,
	}
	if req.FechaProgramada != nil && *req.FechaProgramada != "" {
		at, err := time.Parse(time.RFC3339, *req.FechaProgramada)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fecha_programada must be RFC 3339"))
			return
		}
		m.ScheduledAt = &at
	}

	created, err := h.matches.Add(r.Context(), m)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toMatchPayload(created))
}

func fromSlotPayload(p teamSlotPayload) match.TeamSlot {
	return match.TeamSlot{
		TeamID:        p.EquipoID,
		InstitutionID: p.InstitucionID,
		Name:          p.Nombre,
		SourceMatchID: p.OrigenPartido,
		SourceRole:    match.SlotRole(p.OrigenRol),
	}
}

type resultRequest struct {
	MarcadorLocal   int    `json:"marcador_local"`
	MarcadorVisita  int    `json:"marcador_visitante"`
	GanadorID       *int64 `json:"ganador_id"`
	Criterio        string `json:"criterio"`
	PublicarNoticia bool   `json:"publicar_noticia"`
}

func (h *Handler) handleRegisterResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	matchID, err := pathID(r, "matchID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, ok := h.institutionOr403(w, r)
	if !ok {
		return
	}
	var req resultRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	m, err := h.matches.RegisterResult(ctx, middleware.GetUserID(ctx), eventID, matchID, match.ResultParams{
		InstitutionID: institutionID,
		LocalScore:    req.MarcadorLocal,
		VisitorScore:  req.MarcadorVisita,
		WinnerTeamID:  req.GanadorID,
		Criterion:     req.Criterio,
		PublishNews:   req.PublicarNoticia,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"partido": toMatchPayload(m),
		"meta":    map[string]bool{"noticia_publicada": m.Result.NewsPublished},
	})
}

func (h *Handler) handlePublishMatchNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	matchID, err := pathID(r, "matchID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	m, err := h.matches.PublishNews(ctx, middleware.GetUserID(ctx), eventID, matchID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"partido": toMatchPayload(m),
		"meta":    map[string]bool{"noticia_publicada": m.Result.NewsPublished},
	})
}

func (h *Handler) handleMatchOutcomes(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	matchID, err := pathID(r, "matchID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	outcomes, err := h.matches.Outcomes(r.Context(), eventID, matchID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make(map[int64]string, len(outcomes))
	for teamID, outcome := range outcomes {
		out[teamID] = string(outcome)
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListNews(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	items, err := h.news.ListByEvent(r.Context(), eventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	type itemPayload struct {
		ID        string `json:"id"`
		PartidoID int64  `json:"partido_id"`
		Titulo    string `json:"titulo"`
		Cuerpo    string `json:"cuerpo"`
		Publicado string `json:"publicado_en"`
	}
	out := make([]itemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, itemPayload{
			ID:        item.ID.String(),
			PartidoID: item.MatchID,
			Titulo:    item.Title,
			Cuerpo:    item.Body,
			Publicado: item.PublishedAt.Format(time.RFC3339),
		})
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
