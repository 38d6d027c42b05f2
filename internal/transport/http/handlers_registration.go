package httptransport

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"fedevents/internal/event"
	"fedevents/internal/platform/middleware"
	"fedevents/internal/registration"
	"fedevents/internal/transport/http/shared"
	dErrors "fedevents/pkg/domain-errors"
)

const maxBatchBytes = 32 << 20

func (h *Handler) institutionOr403(w http.ResponseWriter, r *http.Request) (int64, bool) {
	institutionID := middleware.GetInstitutionID(r.Context())
	if institutionID == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "an institution identity is required"))
		return 0, false
	}
	return institutionID, true
}

func (h *Handler) handleGetMyRegistration(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, ok := h.institutionOr403(w, r)
	if !ok {
		return
	}
	reg, st, err := h.registrations.Get(r.Context(), eventID, institutionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRegistrationPayload(reg, st))
}

type enrollmentRequest struct {
	Estudiantes []int64 `json:"estudiantes"`
}

func (h *Handler) handleUpdateMyRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, ok := h.institutionOr403(w, r)
	if !ok {
		return
	}
	var req enrollmentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	reg, err := h.registrations.SetEnrollment(ctx, middleware.GetUserID(ctx), eventID, institutionID, req.Estudiantes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.events.CurrentStage(ctx, eventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRegistrationPayload(reg, st))
}

// handleUploadDocuments accepts a multipart form. Each file part is named
// "documentos" and carries "<studentID>_<typeID>" form metadata in its
// part name suffix, mirroring the companion fields estudiante_id[i] and
// tipo_id[i].
func (h *Handler) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, ok := h.institutionOr403(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxBatchBytes); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	files := r.MultipartForm.File["documentos"]
	studentIDs := r.MultipartForm.Value["estudiante_id"]
	typeIDs := r.MultipartForm.Value["tipo_id"]
	if len(files) == 0 || len(studentIDs) != len(files) || len(typeIDs) != len(files) {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"each file needs matching estudiante_id and tipo_id fields"))
		return
	}

	items := make([]registration.BatchItem, 0, len(files))
	for i, fh := range files {
		studentID, err := strconv.ParseInt(studentIDs[i], 10, 64)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid estudiante_id"))
			return
		}
		typeID, err := strconv.ParseInt(typeIDs[i], 10, 64)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tipo_id"))
			return
		}
		ref, err := spoolFile(fh)
		if err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "read uploaded file"))
			return
		}
		items = append(items, registration.BatchItem{
			StudentID:   studentID,
			TypeID:      typeID,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			FileRef:     ref,
		})
	}

	result, err := h.registrations.SubmitDocumentsBatch(ctx, middleware.GetUserID(ctx), eventID, institutionID, items)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	type itemPayload struct {
		EstudianteID int64  `json:"estudiante_id"`
		TipoID       int64  `json:"tipo_id"`
		Exito        bool   `json:"exito"`
		Mensaje      string `json:"mensaje"`
	}
	body := struct {
		Resultados []itemPayload `json:"resultados"`
		Exitosos   int           `json:"exitosos"`
		Fallidos   int           `json:"fallidos"`
	}{Exitosos: result.Succeeded, Fallidos: result.Failed}
	for _, item := range result.Results {
		body.Resultados = append(body.Resultados, itemPayload{
			EstudianteID: item.StudentID,
			TipoID:       item.TypeID,
			Exito:        item.Success,
			Mensaje:      item.Message,
		})
	}
	shared.WriteJSON(w, http.StatusOK, body)
}

// spoolFile drains an uploaded part. Blob storage is an external
// collaborator; the engine only keeps a reference.
func spoolFile(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		return "", err
	}
	return "upload://" + fh.Filename, nil
}

func (h *Handler) handleListDocumentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.registrations.ListDocumentTypes(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	type typePayload struct {
		ID          int64  `json:"id"`
		Nombre      string `json:"nombre"`
		Obligatorio bool   `json:"obligatorio"`
	}
	out := make([]typePayload, 0, len(types))
	for _, t := range types {
		out = append(out, typePayload{ID: t.ID, Nombre: t.Name, Obligatorio: t.Required})
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, ok := h.institutionOr403(w, r)
	if !ok {
		return
	}
	entries, err := h.registrations.Completeness(r.Context(), eventID, institutionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	type entryPayload struct {
		EstudianteID int64             `json:"estudiante_id"`
		Completo     bool              `json:"completo"`
		Faltantes    []int64           `json:"faltantes,omitempty"`
		Documentos   []documentPayload `json:"documentos"`
	}
	out := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		p := entryPayload{EstudianteID: e.StudentID, Completo: e.Complete, Faltantes: e.Missing}
		for _, d := range e.Documents {
			p.Documentos = append(p.Documentos, toDocumentPayload(d))
		}
		out = append(out, p)
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

type reviewRequest struct {
	Estado string `json:"estado"`
	Nota   string `json:"nota"`
}

func (h *Handler) handleReviewDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, err := pathID(r, "institutionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	documentID, err := pathID(r, "documentID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req reviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	doc, err := h.registrations.ReviewDocument(ctx, middleware.GetUserID(ctx),
		eventID, institutionID, documentID, registration.DocumentState(req.Estado), req.Nota)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentPayload(*doc))
}

type decideRequest struct {
	Veredicto string `json:"veredicto"`
	Motivo    string `json:"motivo"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, err := pathID(r, "institutionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req decideRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	err = h.registrations.Decide(ctx, middleware.GetUserID(ctx),
		eventID, institutionID, event.AuditState(req.Veredicto), req.Motivo)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lockRequest struct {
	Bloqueada bool `json:"bloqueada"`
}

func (h *Handler) handleSetLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := pathID(r, "eventID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	institutionID, err := pathID(r, "institutionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req lockRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.registrations.SetLock(ctx, middleware.GetUserID(ctx), eventID, institutionID, req.Bloqueada); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
