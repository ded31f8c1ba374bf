package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"inmobiliaria/internal/domain"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError maps domain errors onto the {error, details} envelope.
// 500 responses carry only the failed operation; the cause goes to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		ae *domain.AuthError
		de *domain.DependencyError
	)
	switch {
	case errors.As(err, &ve):
		body := errorBody{Error: ve.Message}
		if len(ve.Fields) > 0 {
			body.Details = ve.Fields
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorBody{Error: nf.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.As(err, &ae):
		writeJSON(w, ae.Status, errorBody{Error: ae.Message})
	default:
		msg := "internal server error"
		ev := log.Error().Err(err).
			Str("route", r.URL.Path).
			Str("method", r.Method).
			Str("request_id", middleware.GetReqID(r.Context()))
		if errors.As(err, &de) {
			msg = "failed to " + de.Op
			ev = ev.Str("op", de.Op)
		}
		ev.Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg})
	}
}

// decodeJSON reads a bounded JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		ve := domain.NewValidationError("invalid request body")
		var (
			te *json.UnmarshalTypeError
			me *http.MaxBytesError
		)
		switch {
		case errors.Is(err, io.EOF):
			ve.Add("body", "is required")
		case errors.As(err, &te) && te.Field != "":
			ve.Add(te.Field, "has the wrong type")
		case errors.As(err, &me):
			ve.Add("body", "is too large")
		default:
			ve.Add("body", "is not valid JSON")
		}
		return ve
	}
	return nil
}
