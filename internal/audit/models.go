package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names a domain operation worth keeping a trail for.
type Action string

const (
	ActionEventCreated        Action = "evento_creado"
	ActionEventUpdated        Action = "evento_actualizado"
	ActionTimelineAdjusted    Action = "cronograma_ajustado"
	ActionEventArchived       Action = "evento_archivado"
	ActionEventDeleted        Action = "evento_eliminado"
	ActionInvitationSent      Action = "invitacion_enviada"
	ActionInvitationAnswered  Action = "invitacion_respondida"
	ActionRegistrationUpdated Action = "registro_actualizado"
	ActionDocumentsUploaded   Action = "documentos_cargados"
	ActionDocumentReviewed    Action = "documento_revisado"
	ActionAuditDecision       Action = "auditoria_decidida"
	ActionResultRegistered    Action = "resultado_registrado"
	ActionNewsPublished       Action = "noticia_publicada"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	ActorID   int64
	EventID   *int64
	Action    Action
	Subject   string
	Detail    string
}
