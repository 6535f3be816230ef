package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cocreview/app"
	"cocreview/domain/core"
)

type createLabRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (h *Handler) handleListLabs(w http.ResponseWriter, r *http.Request) {
	labs, err := h.admin.ListLabs(r.Context(), UserFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, labs)
}

func (h *Handler) handleCreateLab(w http.ResponseWriter, r *http.Request) {
	var req createLabRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	lab, err := h.admin.CreateLab(r.Context(), UserFrom(r.Context()), req.Name, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lab)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetLabActive(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseLabID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.admin.SetLabActive(r.Context(), UserFrom(r.Context()), id, req.Active); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var labID core.LabID
	if v := r.URL.Query().Get("lab"); v != "" {
		id, err := core.ParseLabID(v)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		labID = id
	}
	users, err := h.admin.ListUsers(r.Context(), UserFrom(r.Context()), labID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req app.NewUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.admin.CreateUser(r.Context(), UserFrom(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.admin.DeactivateUser(r.Context(), UserFrom(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
