package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"accueil/internal/registration/models"
	dErrors "accueil/pkg/domain-errors"
	"accueil/pkg/platform/httputil"
	"accueil/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the registration operations the handler needs.
type Service interface {
	Create(ctx context.Context, fields models.FieldMap) (*models.Record, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	Update(ctx context.Context, id string, fields models.FieldMap) (*models.Record, error)
}

// Handler serves the registration list, detail and edit endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New creates a registration Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.handleCreate)
	r.Get("/registrations", h.handleList)
	r.Get("/registrations/{id}", h.handleGet)
	r.Put("/registrations/{id}", h.handleUpdate)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FieldsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rec, err := h.svc.Create(ctx, models.FieldMap(*req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}
	recs, err := h.svc.ListRecent(ctx, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(recs))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FieldsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rec, err := h.svc.Update(ctx, chi.URLParam(r, "id"), models.FieldMap(*req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(rec))
}
