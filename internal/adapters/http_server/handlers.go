package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inmobiliaria/internal/app"
	"inmobiliaria/internal/domain"
)

type Handlers struct {
	Queries   *app.QueryService
	Catalog   *app.CatalogService
	Images    *app.ImageService
	Inquiries *app.InquiryService
	Agents    *app.AgentService
	Tokens    TokenVerifier
}

func (s *Server) MountHandlers(h *Handlers) {
	session := RequireSession(h.Tokens)
	agent := RequireAgent(h.Agents)

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.listProperties)
			r.Get("/featured", h.featuredProperties)
			r.Get("/{id}", h.getProperty)
			r.Get("/{id}/images", h.listImages)

			r.Group(func(r chi.Router) {
				r.Use(session, agent)
				r.Post("/", h.createProperty)
				r.Put("/{id}", h.updateProperty)
				r.Delete("/{id}", h.deleteProperty)
				r.Post("/{id}/images", h.uploadImage)
				r.Delete("/{id}/images/{imageId}", h.deleteImage)
				r.Patch("/{id}/images/{imageId}", h.setMainImage)
			})
		})

		r.With(session, agent).Get("/dashboard/properties", h.dashboardProperties)

		r.Route("/inquiries", func(r chi.Router) {
			r.Post("/", h.createInquiry)
			r.Group(func(r chi.Router) {
				r.Use(session, RequireAdmin)
				r.Get("/", h.listInquiries)
				r.Patch("/{id}", h.toggleInquiry)
				r.Delete("/{id}", h.deleteInquiry)
			})
		})

		r.Route("/agents", func(r chi.Router) {
			r.Use(session)
			r.Get("/", h.listAgents)
			r.Post("/", h.createAgent)
			r.Get("/profile", h.getProfile)
			r.Put("/profile", h.updateProfile)
		})
	})
}

// pathID returns the named URL parameter when it is a UUID.
func pathID(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if _, err := uuid.Parse(v); err != nil {
		ve := domain.NewValidationError("invalid parameters")
		ve.Add(name, "must be a valid UUID")
		return "", ve
	}
	return v, nil
}

// ---- properties ----

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	h.searchProperties(w, r, domain.SearchOptions{})
}

func (h *Handlers) dashboardProperties(w http.ResponseWriter, r *http.Request) {
	h.searchProperties(w, r, domain.SearchOptions{IncludeAllStatuses: true})
}

func (h *Handlers) searchProperties(w http.ResponseWriter, r *http.Request, opts domain.SearchOptions) {
	f, err := app.ParsePropertyFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Queries.SearchProperties(r.Context(), f, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": out})
}

func (h *Handlers) featuredProperties(w http.ResponseWriter, r *http.Request) {
	out, err := h.Queries.Featured(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": out})
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Queries.GetProperty(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"property": p})
}

func (h *Handlers) createProperty(w http.ResponseWriter, r *http.Request) {
	var in app.CreatePropertyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Catalog.CreateProperty(r.Context(), principal(r).UserID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "property created", "property": p})
}

func (h *Handlers) updateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in app.UpdatePropertyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Catalog.UpdateProperty(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "property updated", "property": p})
}

func (h *Handlers) deleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteProperty(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "property deleted"})
}

// ---- images ----

// multipart overhead allowed on top of the file itself
const uploadSlack = 1 << 20

func (h *Handlers) listImages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	imgs, err := h.Images.ListImages(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": imgs})
}

func (h *Handlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, app.MaxImageSize+uploadSlack)
	if err := r.ParseMultipartForm(app.MaxImageSize + uploadSlack); err != nil {
		ve := domain.NewValidationError("invalid image file")
		var me *http.MaxBytesError
		if errors.As(err, &me) {
			ve.Add("file", "file exceeds the maximum size of 10 MiB")
		} else {
			ve.Add("file", "multipart form with a file field is required")
		}
		writeError(w, r, ve)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		ve := domain.NewValidationError("invalid image file")
		ve.Add("file", "is required")
		writeError(w, r, ve)
		return
	}
	defer file.Close()

	isMain := false
	if v := r.FormValue("is_main"); v != "" {
		isMain, _ = strconv.ParseBool(v)
	}

	up := domain.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	img, err := h.Images.AddImage(r.Context(), id, up, isMain)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "image uploaded", "image": img})
}

func (h *Handlers) deleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	imageID, err := pathID(r, "imageId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Images.DeleteImage(r.Context(), id, imageID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "image deleted"})
}

func (h *Handlers) setMainImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	imageID, err := pathID(r, "imageId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Images.SetMainImage(r.Context(), id, imageID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "main image updated"})
}
