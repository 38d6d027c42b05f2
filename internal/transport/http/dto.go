package httptransport

import (
	"time"

	"fedevents/internal/event"
	"fedevents/internal/event/stage"
	"fedevents/internal/match"
	"fedevents/internal/notification"
	"fedevents/internal/registration"
	dErrors "fedevents/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

func fmtDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, *s, time.UTC)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "dates must use the YYYY-MM-DD format")
	}
	return &t, nil
}

type categoryPayload struct {
	ID        int64  `json:"id,omitempty"`
	DeporteID int64  `json:"deporte_id,omitempty"`
	Nombre    string `json:"nombre"`
	EdadMin   *int   `json:"edad_minima"`
	EdadMax   *int   `json:"edad_maxima"`
}

type scenarioPayload struct {
	ID      int64  `json:"id,omitempty"`
	LugarID *int64 `json:"lugar_id"`
	Nombre  string `json:"nombre"`
}

type invitationPayload struct {
	InstitucionID        int64   `json:"institucion_id"`
	Estado               string  `json:"estado"`
	EstadoAuditoria      string  `json:"estado_auditoria"`
	MotivoRechazo        string  `json:"motivo_rechazo,omitempty"`
	HabilitadoCampeonato bool    `json:"habilitado_campeonato"`
	FechaFinExtendida    *string `json:"fecha_fin_extendida,omitempty"`
}

type timelinePayload struct {
	InicioInscripcion *string `json:"fecha_inicio_inscripcion"`
	FinInscripcion    *string `json:"fecha_fin_inscripcion"`
	InicioAuditoria   *string `json:"fecha_inicio_auditoria"`
	FinAuditoria      *string `json:"fecha_fin_auditoria"`
	InicioCampeonato  *string `json:"fecha_inicio_campeonato"`
	FinCampeonato     *string `json:"fecha_fin_campeonato"`
}

type eventPayload struct {
	ID                     int64               `json:"id"`
	Titulo                 string              `json:"titulo"`
	Descripcion            string              `json:"descripcion,omitempty"`
	Sexo                   string              `json:"sexo"`
	DeporteID              int64               `json:"deporte_id"`
	Estado                 string              `json:"estado"`
	EtapaActual            string              `json:"etapa_actual"`
	Categorias             []categoryPayload   `json:"categorias"`
	Escenarios             []scenarioPayload   `json:"escenarios,omitempty"`
	Invitaciones           []invitationPayload `json:"invitaciones,omitempty"`
	Cronograma             timelinePayload     `json:"cronograma"`
	Portada                string              `json:"portada,omitempty"`
	DocumentoPlanificacion string              `json:"documento_planificacion,omitempty"`
}

func toEventPayload(ev *event.Event, st stage.Stage) eventPayload {
	p := eventPayload{
		ID:                     ev.ID,
		Titulo:                 ev.Title,
		Descripcion:            ev.Description,
		Sexo:                   string(ev.Sex),
		DeporteID:              ev.SportID,
		Estado:                 string(ev.Status),
		EtapaActual:            string(st.Status()),
		Portada:                ev.CoverImage,
		DocumentoPlanificacion: ev.PlanningDoc,
		Cronograma: timelinePayload{
			InicioInscripcion: fmtDate(ev.Timeline.RegistrationStart),
			FinInscripcion:    fmtDate(ev.Timeline.RegistrationEnd),
			InicioAuditoria:   fmtDate(ev.Timeline.AuditStart),
			FinAuditoria:      fmtDate(ev.Timeline.AuditEnd),
			InicioCampeonato:  fmtDate(ev.Timeline.ChampionshipStart),
			FinCampeonato:     fmtDate(ev.Timeline.ChampionshipEnd),
		},
	}
	for _, c := range ev.Categories {
		p.Categorias = append(p.Categorias, categoryPayload{
			ID: c.ID, DeporteID: c.SportID, Nombre: c.Name, EdadMin: c.MinAge, EdadMax: c.MaxAge,
		})
	}
	for _, sc := range ev.Scenarios {
		p.Escenarios = append(p.Escenarios, scenarioPayload{ID: sc.ID, LugarID: sc.LocationID, Nombre: sc.Name})
	}
	for _, inv := range ev.Invitations {
		p.Invitaciones = append(p.Invitaciones, toInvitationPayload(&inv))
	}
	return p
}

func toInvitationPayload(inv *event.Invitation) invitationPayload {
	return invitationPayload{
		InstitucionID:        inv.InstitutionID,
		Estado:               string(inv.State),
		EstadoAuditoria:      string(inv.AuditState),
		MotivoRechazo:        inv.RejectionReason,
		HabilitadoCampeonato: inv.ChampionshipEnabled,
		FechaFinExtendida:    fmtDate(inv.ExtendedRegistrationEnd),
	}
}

func (p timelinePayload) toTimeline() (event.Timeline, error) {
	var tl event.Timeline
	var err error
	if tl.RegistrationStart, err = parseDate(p.InicioInscripcion); err != nil {
		return tl, err
	}
	if tl.RegistrationEnd, err = parseDate(p.FinInscripcion); err != nil {
		return tl, err
	}
	if tl.AuditStart, err = parseDate(p.InicioAuditoria); err != nil {
		return tl, err
	}
	if tl.AuditEnd, err = parseDate(p.FinAuditoria); err != nil {
		return tl, err
	}
	if tl.ChampionshipStart, err = parseDate(p.InicioCampeonato); err != nil {
		return tl, err
	}
	if tl.ChampionshipEnd, err = parseDate(p.FinCampeonato); err != nil {
		return tl, err
	}
	return tl, nil
}

type documentPayload struct {
	ID           int64  `json:"id"`
	EstudianteID int64  `json:"estudiante_id"`
	TipoID       int64  `json:"tipo_id"`
	Archivo      string `json:"archivo"`
	Estado       string `json:"estado"`
	NotaRevision string `json:"nota_revision,omitempty"`
	FechaDeCarga string `json:"fecha_carga"`
}

func toDocumentPayload(d registration.Document) documentPayload {
	return documentPayload{
		ID:           d.ID,
		EstudianteID: d.StudentID,
		TipoID:       d.TypeID,
		Archivo:      d.FileName,
		Estado:       string(d.State),
		NotaRevision: d.ReviewerNote,
		FechaDeCarga: d.UploadedAt.Format(time.RFC3339),
	}
}

type registrationPayload struct {
	ID              int64             `json:"id"`
	EventoID        int64             `json:"evento_id"`
	InstitucionID   int64             `json:"institucion_id"`
	Estudiantes     []int64           `json:"estudiantes"`
	Documentos      []documentPayload `json:"documentos"`
	EdicionBloquada bool              `json:"edicion_bloqueada"`
	EtapaActual     string            `json:"etapa_actual"`
}

func toRegistrationPayload(r *registration.Registration, st stage.Stage) registrationPayload {
	p := registrationPayload{
		ID:              r.ID,
		EventoID:        r.EventID,
		InstitucionID:   r.InstitutionID,
		Estudiantes:     r.StudentIDs,
		EdicionBloquada: r.Locked,
		EtapaActual:     string(st.Status()),
	}
	if p.Estudiantes == nil {
		p.Estudiantes = []int64{}
	}
	for _, d := range r.Documents {
		p.Documentos = append(p.Documentos, toDocumentPayload(d))
	}
	return p
}

type teamSlotPayload struct {
	EquipoID      *int64 `json:"equipo_id"`
	InstitucionID int64  `json:"institucion_id,omitempty"`
	Nombre        string `json:"nombre,omitempty"`
	OrigenPartido *int64 `json:"origen_partido_id,omitempty"`
	OrigenRol     string `json:"origen_rol,omitempty"`
}

type matchPayload struct {
	ID               int64           `json:"id"`
	EventoID         int64           `json:"evento_id"`
	Fase             string          `json:"fase"`
	Local            teamSlotPayload `json:"local"`
	Visitante        teamSlotPayload `json:"visitante"`
	EscenarioID      *int64          `json:"escenario_id,omitempty"`
	FechaProgramada  *string         `json:"fecha_programada,omitempty"`
	Estado           string          `json:"estado"`
	MarcadorLocal    *int            `json:"marcador_local"`
	MarcadorVisita   *int            `json:"marcador_visitante"`
	GanadorID        *int64          `json:"ganador_id"`
	Criterio         string          `json:"criterio,omitempty"`
	NoticiaPublicada bool            `json:"noticia_publicada"`
}

func toSlotPayload(s match.TeamSlot) teamSlotPayload {
	return teamSlotPayload{
		EquipoID:      s.TeamID,
		InstitucionID: s.InstitutionID,
		Nombre:        s.Name,
		OrigenPartido: s.SourceMatchID,
		OrigenRol:     string(s.SourceRole),
	}
}

func toMatchPayload(m *match.Match) matchPayload {
	p := matchPayload{
		ID:               m.ID,
		EventoID:         m.EventID,
		Fase:             string(m.Phase),
		Local:            toSlotPayload(m.Local),
		Visitante:        toSlotPayload(m.Visitor),
		EscenarioID:      m.ScenarioID,
		Estado:           string(m.Status),
		MarcadorLocal:    m.Result.LocalScore,
		MarcadorVisita:   m.Result.VisitorScore,
		GanadorID:        m.Result.WinnerTeamID,
		Criterio:         m.Result.Criterion,
		NoticiaPublicada: m.Result.NewsPublished,
	}
	if m.ScheduledAt != nil {
		s := m.ScheduledAt.Format(time.RFC3339)
		p.FechaProgramada = &s
	}
	return p
}

type notificationPayload struct {
	ID       int64  `json:"id"`
	EventoID *int64 `json:"evento_id,omitempty"`
	Tipo     string `json:"tipo"`
	Nivel    string `json:"nivel"`
	Titulo   string `json:"titulo"`
	Mensaje  string `json:"mensaje"`
	Leido    bool   `json:"leido"`
	Creado   string `json:"creado_en"`
}

func toNotificationPayload(n notification.Notification) notificationPayload {
	return notificationPayload{
		ID:       n.ID,
		EventoID: n.EventID,
		Tipo:     string(n.Kind),
		Nivel:    string(n.Level),
		Titulo:   n.Title,
		Mensaje:  n.Message,
		Leido:    n.Read,
		Creado:   n.CreatedAt.Format(time.RFC3339),
	}
}

type studentPayload struct {
	ID              int64  `json:"id"`
	InstitucionID   int64  `json:"institucion_id"`
	Nombres         string `json:"nombres"`
	Apellidos       string `json:"apellidos"`
	Sexo            string `json:"sexo"`
	FechaNacimiento string `json:"fecha_nacimiento"`
	Eliminado       bool   `json:"eliminado"`
}

func toStudentPayload(s *registration.Student) studentPayload {
	return studentPayload{
		ID:              s.ID,
		InstitucionID:   s.InstitutionID,
		Nombres:         s.FirstName,
		Apellidos:       s.LastName,
		Sexo:            string(s.Sex),
		FechaNacimiento: s.BirthDate.Format(dateLayout),
		Eliminado:       s.Deleted,
	}
}
