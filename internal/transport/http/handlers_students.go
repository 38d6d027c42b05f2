package httptransport

import (
	"net/http"

	"fedevents/internal/event"
	"fedevents/internal/registration"
	"fedevents/internal/transport/http/shared"
)

type studentRequest struct {
	InstitucionID   int64   `json:"institucion_id"`
	Nombres         string  `json:"nombres"`
	Apellidos       string  `json:"apellidos"`
	Sexo            string  `json:"sexo"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
}

func (r studentRequest) toParams() (registration.StudentParams, error) {
	birth, err := parseDate(r.FechaNacimiento)
	if err != nil {
		return registration.StudentParams{}, err
	}
	p := registration.StudentParams{
		InstitutionID: r.InstitucionID,
		FirstName:     r.Nombres,
		LastName:      r.Apellidos,
		Sex:           event.Sex(r.Sexo),
	}
	if birth != nil {
		p.BirthDate = *birth
	}
	return p, nil
}

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.students.Create(r.Context(), params)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toStudentPayload(st))
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req studentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.students.Update(r.Context(), id, params)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toStudentPayload(st))
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	st, err := h.students.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toStudentPayload(st))
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	institutionID, ok := h.institutionOr403(w, r)
	if !ok {
		return
	}
	includeDeleted := r.URL.Query().Get("incluir_eliminados") == "true"
	students, err := h.students.List(r.Context(), institutionID, includeDeleted)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]studentPayload, 0, len(students))
	for _, st := range students {
		out = append(out, toStudentPayload(st))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if r.URL.Query().Get("forzar") == "true" {
		err = h.students.ForceDelete(r.Context(), id)
	} else {
		err = h.students.SoftDelete(r.Context(), id)
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRestoreStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.students.Restore(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
