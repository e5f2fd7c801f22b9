package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"accueil/internal/registration/metrics"
	"accueil/internal/registration/models"
	"accueil/internal/registration/store"
	dErrors "accueil/pkg/domain-errors"
)

// failingStore fails every call with err.
type failingStore struct{ err error }

func (f failingStore) Create(context.Context, models.Record) (*models.Record, error) {
	return nil, f.err
}
func (f failingStore) FindByID(context.Context, string) (*models.Record, error) { return nil, f.err }
func (f failingStore) Update(context.Context, string, models.Record) (*models.Record, error) {
	return nil, f.err
}
func (f failingStore) ListRecent(context.Context, int) ([]*models.Record, error) { return nil, f.err }
func (f failingStore) ListSince(context.Context, time.Time, int) ([]*models.Record, error) {
	return nil, f.err
}

// sinceRecorder captures ListSince arguments.
type sinceRecorder struct {
	*store.InMemory
	since time.Time
	limit int
}

func (r *sinceRecorder) ListSince(ctx context.Context, since time.Time, limit int) ([]*models.Record, error) {
	r.since, r.limit = since, limit
	return r.InMemory.ListSince(ctx, since, limit)
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	metrics *metrics.Metrics
	svc     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.metrics = metrics.NewWith(prometheus.NewRegistry())
	s.svc = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
}

func fullFields() models.FieldMap {
	return models.FieldMap{
		models.LabelLastName:     "Dupont",
		models.LabelFirstName:    "Marie",
		models.LabelNationality:  "Française",
		models.LabelProfession:   "Infirmière",
		models.LabelPhone:        "0601020304",
		models.LabelEmail:        "marie@example.com",
		models.LabelNeighborhood: "Vieux Lyon",
		models.LabelOriginChurch: "Église de Lyon",
		models.LabelBaptized:     "Oui",
		models.LabelVisiting:     "Non",
		models.LabelDiscovery:    "Internet",
	}
}

func (s *ServiceSuite) TestCreate() {
	s.Run("persists every field and counts it", func() {
		rec, err := s.svc.Create(s.ctx, fullFields())
		s.Require().NoError(err)
		s.NotEmpty(rec.ID)
		s.Equal("Dupont", rec.LastName)
		s.Equal(models.FlagYes, rec.Baptized)
		s.Equal(models.FlagNo, rec.Visiting)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.RecordsCreated))
	})

	s.Run("identical content creates distinct records", func() {
		a, err := s.svc.Create(s.ctx, fullFields())
		s.Require().NoError(err)
		b, err := s.svc.Create(s.ctx, fullFields())
		s.Require().NoError(err)
		s.NotEqual(a.ID, b.ID)
	})

	s.Run("store failure is internal", func() {
		svc := New(failingStore{err: errors.New("connection reset")})
		_, err := svc.Create(s.ctx, fullFields())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Contains(err.Error(), "connection reset")
	})
}

func (s *ServiceSuite) TestListRecent() {
	for i := 0; i < 12; i++ {
		_, err := s.svc.Create(s.ctx, fullFields())
		s.Require().NoError(err)
	}

	s.Run("zero limit uses the default", func() {
		recs, err := s.svc.ListRecent(s.ctx, 0)
		s.Require().NoError(err)
		s.Len(recs, DefaultRecentLimit)
	})

	s.Run("explicit limit", func() {
		recs, err := s.svc.ListRecent(s.ctx, 3)
		s.Require().NoError(err)
		s.Len(recs, 3)
	})

	s.Run("out of range limit is a validation error", func() {
		for _, n := range []int{-1, MaxRecentLimit + 1} {
			_, err := s.svc.ListRecent(s.ctx, n)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})

	s.Run("read failure is internal", func() {
		svc := New(failingStore{err: errors.New("timeout")})
		_, err := svc.ListRecent(s.ctx, 5)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestGet() {
	created, err := s.svc.Create(s.ctx, fullFields())
	s.Require().NoError(err)

	s.Run("found", func() {
		rec, err := s.svc.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, rec.ID)
	})

	s.Run("unknown id", func() {
		_, err := s.svc.Get(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty id", func() {
		_, err := s.svc.Get(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestUpdate() {
	created, err := s.svc.Create(s.ctx, fullFields())
	s.Require().NoError(err)

	s.Run("one changed field keeps the rest", func() {
		fields := created.Fields()
		fields[models.LabelPhone] = "0708091011"
		updated, err := s.svc.Update(s.ctx, created.ID, fields)
		s.Require().NoError(err)

		s.Equal("0708091011", updated.Phone)
		s.Equal(created.LastName, updated.LastName)
		s.Equal(created.FirstName, updated.FirstName)
		s.Equal(created.Nationality, updated.Nationality)
		s.Equal(created.Profession, updated.Profession)
		s.Equal(created.Email, updated.Email)
		s.Equal(created.Neighborhood, updated.Neighborhood)
		s.Equal(created.OriginChurch, updated.OriginChurch)
		s.Equal(created.Baptized, updated.Baptized)
		s.Equal(created.Visiting, updated.Visiting)
		s.Equal(created.Discovery, updated.Discovery)
		s.Equal(created.CreatedAt, updated.CreatedAt)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.RecordsUpdated))
	})

	s.Run("missing labels become empty", func() {
		updated, err := s.svc.Update(s.ctx, created.ID, models.FieldMap{models.LabelLastName: "Martin"})
		s.Require().NoError(err)
		s.Equal("Martin", updated.LastName)
		s.Empty(updated.FirstName)
		s.Equal(models.FlagUnset, updated.Baptized)
	})

	s.Run("unknown id", func() {
		_, err := s.svc.Update(s.ctx, "missing", fullFields())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestAnalyticsWindow() {
	rec := &sinceRecorder{InMemory: store.NewInMemory()}
	svc := New(rec, WithAnalyticsWindow(30*24*time.Hour, 50))
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	_, err := svc.AnalyticsWindow(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(now.Add(-30*24*time.Hour), rec.since)
	s.Equal(50, rec.limit)

	_, err = New(failingStore{err: errors.New("down")}).AnalyticsWindow(s.ctx, now)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestDefaultWindow() {
	rec := &sinceRecorder{InMemory: store.NewInMemory()}
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	_, err := New(rec).AnalyticsWindow(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(now.Add(-DefaultAnalyticsWindow), rec.since)
	s.Equal(DefaultAnalyticsMaxRows, rec.limit)
}
