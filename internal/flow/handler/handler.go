package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"accueil/internal/extraction"
	"accueil/internal/flow"
	"accueil/internal/registration/models"
	dErrors "accueil/pkg/domain-errors"
	"accueil/pkg/platform/httputil"
	"accueil/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Controller

// DefaultMaxUploadBytes bounds an uploaded picture.
const DefaultMaxUploadBytes = 10 << 20

// Controller defines the capture operations the handler needs.
type Controller interface {
	Start(ctx context.Context) (*flow.Snapshot, error)
	Get(ctx context.Context, id string) (*flow.Snapshot, error)
	Image(ctx context.Context, id string) ([]byte, string, error)
	SubmitImage(ctx context.Context, id string, data []byte) (*flow.Snapshot, error)
	Cancel(ctx context.Context, id string) (*flow.Snapshot, error)
	Retry(ctx context.Context, id string) (*flow.Snapshot, error)
	EditFields(ctx context.Context, id string, fields models.FieldMap) (*flow.Snapshot, error)
	Discard(ctx context.Context, id string) (*flow.Snapshot, error)
	Save(ctx context.Context, id string) (*flow.Snapshot, *models.Record, error)
	Close(ctx context.Context, id string) error
}

// Handler serves the capture journey.
type Handler struct {
	ctrl           Controller
	logger         *slog.Logger
	maxUploadBytes int64
}

func New(ctrl Controller, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{ctrl: ctrl, logger: logger, maxUploadBytes: maxUploadBytes}
}

// Register registers the flow routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/flows", h.handleStart)
	r.Route("/flows/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Delete("/", h.handleClose)
		r.Post("/image", h.handleSubmitImage)
		r.Get("/image", h.handleImage)
		r.Post("/cancel", h.transition(h.ctrl.Cancel))
		r.Post("/retry", h.transition(h.ctrl.Retry))
		r.Post("/discard", h.transition(h.ctrl.Discard))
		r.Put("/fields", h.handleEditFields)
		r.Post("/save", h.handleSave)
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.ctrl.Start(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(snap))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.ctrl.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(snap))
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transition(op func(context.Context, string) (*flow.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := op(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toResponse(snap))
	}
}

// handleSubmitImage accepts the picture either as a raw image body or as
// the "image" part of a multipart form.
func (h *Handler) handleSubmitImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := h.readImage(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "reading uploaded image failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	snap, err := h.ctrl.SubmitImage(ctx, chi.URLParam(r, "id"), data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, toResponse(snap))
}

func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var src io.Reader = body
	if strings.HasPrefix(mediaType, "multipart/") {
		r.Body = body
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, uploadError(err, "multipart form has no image part")
		}
		defer file.Close()
		src = file
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, uploadError(err, "image upload could not be read")
	}
	return data, nil
}

func uploadError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return dErrors.New(dErrors.CodeTooLarge, "image is too large")
	}
	return dErrors.Wrap(err, dErrors.CodeBadRequest, message)
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	data, mimeType, err := h.ctrl.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if mimeType == "" {
		mimeType = extraction.SniffMimeType(data)
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleEditFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[FieldsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.ctrl.EditFields(ctx, chi.URLParam(r, "id"), models.FieldMap(*req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(snap))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	snap, rec, err := h.ctrl.Save(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SaveResponse{Flow: toResponse(snap), RegistrationID: rec.ID})
}
