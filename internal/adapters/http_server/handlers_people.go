package httpserver

import (
	"net/http"
	"strconv"

	"inmobiliaria/internal/app"
	"inmobiliaria/internal/domain"
)

// ---- inquiries ----

func (h *Handlers) createInquiry(w http.ResponseWriter, r *http.Request) {
	var in app.CreateInquiryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	inq, err := h.Inquiries.CreateInquiry(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "inquiry sent", "inquiry": inq})
}

func (h *Handlers) listInquiries(w http.ResponseWriter, r *http.Request) {
	var q domain.InquiryQuery
	ve := domain.NewValidationError("invalid parameters")
	if v := r.URL.Query().Get("property_id"); v != "" {
		q.PropertyID = &v
	}
	if v := r.URL.Query().Get("unread_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			ve.Add("unread_only", "must be a boolean")
		}
		q.UnreadOnly = b
	}
	if ve.HasErrors() {
		writeError(w, r, ve)
		return
	}

	out, err := h.Inquiries.ListInquiries(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inquiries": out})
}

func (h *Handlers) toggleInquiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	inq, err := h.Inquiries.ToggleRead(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inquiry": inq})
}

func (h *Handlers) deleteInquiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Inquiries.DeleteInquiry(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "inquiry deleted"})
}

// ---- agents ----

func (h *Handlers) listAgents(w http.ResponseWriter, r *http.Request) {
	out, err := h.Agents.ListAgents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": out})
}

func (h *Handlers) createAgent(w http.ResponseWriter, r *http.Request) {
	var in app.UpsertAgentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.Agents.CreateAgent(r.Context(), principal(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "agent created", "agent": a})
}

func (h *Handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	a, err := h.Agents.GetProfile(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": a})
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in app.UpsertAgentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.Agents.UpdateProfile(r.Context(), principal(r).UserID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "profile updated", "profile": a})
}
