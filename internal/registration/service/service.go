package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"accueil/internal/registration/metrics"
	"accueil/internal/registration/models"
	"accueil/internal/registration/store"
	dErrors "accueil/pkg/domain-errors"
	"accueil/pkg/requestcontext"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100

	DefaultAnalyticsWindow  = 365 * 24 * time.Hour
	DefaultAnalyticsMaxRows = 1000
)

// Store is the record store contract every backend satisfies.
type Store interface {
	Create(ctx context.Context, rec models.Record) (*models.Record, error)
	FindByID(ctx context.Context, id string) (*models.Record, error)
	Update(ctx context.Context, id string, rec models.Record) (*models.Record, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Record, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]*models.Record, error)
}

// Service orchestrates registration reads and writes against the store.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	window    time.Duration
	maxRows   int
	recentMax int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAnalyticsWindow bounds AnalyticsWindow to records newer than window,
// at most maxRows of them.
func WithAnalyticsWindow(window time.Duration, maxRows int) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
		if maxRows > 0 {
			s.maxRows = maxRows
		}
	}
}

// WithRecentMax caps the limit accepted by ListRecent.
func WithRecentMax(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentMax = n
		}
	}
}

// New constructs a Service.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		logger:    slog.Default(),
		window:    DefaultAnalyticsWindow,
		maxRows:   DefaultAnalyticsMaxRows,
		recentMax: MaxRecentLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new record from a field mapping. Identical content
// creates distinct records.
func (s *Service) Create(ctx context.Context, fields models.FieldMap) (*models.Record, error) {
	s.logUnknownLabels(ctx, fields)
	start := time.Now()
	rec, err := s.store.Create(ctx, models.FromFields(fields))
	s.metrics.ObserveStore("create", start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create registration",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
	}
	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "registration created",
		"record_id", rec.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return rec, nil
}

// ListRecent returns up to limit records, newest first. A zero limit means
// the default.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*models.Record, error) {
	if limit == 0 {
		limit = DefaultRecentLimit
	}
	if limit < 1 || limit > s.recentMax {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("limit must be between 1 and %d", s.recentMax))
	}
	start := time.Now()
	recs, err := s.store.ListRecent(ctx, limit)
	s.metrics.ObserveStore("list_recent", start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list registrations",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrations")
	}
	return recs, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (*models.Record, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "registration id is required")
	}
	start := time.Now()
	rec, err := s.store.FindByID(ctx, id)
	s.metrics.ObserveStore("find", start, err)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		s.logger.ErrorContext(ctx, "failed to load registration",
			"error", err,
			"record_id", id,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return rec, nil
}

// Update overwrites every mutable field of a record. Labels missing from
// fields become empty.
func (s *Service) Update(ctx context.Context, id string, fields models.FieldMap) (*models.Record, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "registration id is required")
	}
	s.logUnknownLabels(ctx, fields)
	start := time.Now()
	rec, err := s.store.Update(ctx, id, models.FromFields(fields))
	s.metrics.ObserveStore("update", start, err)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		s.logger.ErrorContext(ctx, "failed to update registration",
			"error", err,
			"record_id", id,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}
	s.metrics.IncrementUpdated()
	s.logger.InfoContext(ctx, "registration updated",
		"record_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	return rec, nil
}

// AnalyticsWindow returns the records created within the configured window
// before now, newest first, capped at the configured row count.
func (s *Service) AnalyticsWindow(ctx context.Context, now time.Time) ([]*models.Record, error) {
	since := now.Add(-s.window)
	start := time.Now()
	recs, err := s.store.ListSince(ctx, since, s.maxRows)
	s.metrics.ObserveStore("list_since", start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load analytics window",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrations")
	}
	return recs, nil
}

func (s *Service) logUnknownLabels(ctx context.Context, fields models.FieldMap) {
	if unknown := fields.UnknownLabels(); len(unknown) > 0 {
		s.logger.WarnContext(ctx, "ignoring unknown field labels",
			"labels", unknown,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
