package store

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"accueil/internal/registration/models"
)

type recordStore interface {
	Create(ctx context.Context, rec models.Record) (*models.Record, error)
	FindByID(ctx context.Context, id string) (*models.Record, error)
	Update(ctx context.Context, id string, rec models.Record) (*models.Record, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Record, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]*models.Record, error)
}

// contractSuite exercises behaviour every store variant must share.
// Embedding suites set store and advance in SetupTest.
type contractSuite struct {
	suite.Suite
	ctx   context.Context
	store recordStore
	// advance moves the store clock forward by d.
	advance func(d time.Duration)
}

func sampleRecord(first, last string) models.Record {
	return models.Record{
		FirstName:    first,
		LastName:     last,
		Nationality:  "Française",
		Profession:   "Étudiante",
		Phone:        "0601020304",
		Email:        "marie@example.com",
		Neighborhood: "Croix-Rousse",
		OriginChurch: "Lyon Centre",
		Baptized:     models.FlagYes,
		Visiting:     models.FlagNo,
		Discovery:    "Un ami",
	}
}

func (s *contractSuite) TestCreate() {
	s.Run("assigns identity and creation time", func() {
		created, err := s.store.Create(s.ctx, sampleRecord("Marie", "Dupont"))
		s.Require().NoError(err)
		s.NotEmpty(created.ID)
		s.False(created.CreatedAt.IsZero())
	})

	s.Run("round-trips every field", func() {
		in := sampleRecord("Étienne", "Prévost")
		created, err := s.store.Create(s.ctx, in)
		s.Require().NoError(err)

		found, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
		s.Equal(in.FirstName, found.FirstName)
		s.Equal(in.LastName, found.LastName)
		s.Equal(in.Nationality, found.Nationality)
		s.Equal(in.Profession, found.Profession)
		s.Equal(in.Phone, found.Phone)
		s.Equal(in.Email, found.Email)
		s.Equal(in.Neighborhood, found.Neighborhood)
		s.Equal(in.OriginChurch, found.OriginChurch)
		s.Equal(models.FlagYes, found.Baptized)
		s.Equal(models.FlagNo, found.Visiting)
		s.Equal(in.Discovery, found.Discovery)
		s.WithinDuration(created.CreatedAt, found.CreatedAt, time.Millisecond)
	})

	s.Run("keeps unset flags unset", func() {
		in := models.Record{FirstName: "Anonyme"}
		created, err := s.store.Create(s.ctx, in)
		s.Require().NoError(err)

		found, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(models.FlagUnset, found.Baptized)
		s.Equal(models.FlagUnset, found.Visiting)
	})
}

func (s *contractSuite) TestFindByIDUnknown() {
	_, err := s.store.FindByID(s.ctx, "00000000-0000-0000-0000-000000000000")
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *contractSuite) TestUpdate() {
	s.Run("overwrites mutable fields and keeps identity", func() {
		created, err := s.store.Create(s.ctx, sampleRecord("Marie", "Dupont"))
		s.Require().NoError(err)

		s.advance(time.Minute)
		edited := models.Record{FirstName: "Marie-Claire", Baptized: models.FlagNo}
		updated, err := s.store.Update(s.ctx, created.ID, edited)
		s.Require().NoError(err)
		s.Equal(created.ID, updated.ID)
		s.WithinDuration(created.CreatedAt, updated.CreatedAt, time.Millisecond)
		s.Equal("Marie-Claire", updated.FirstName)
		s.Empty(updated.LastName)
		s.Empty(updated.Email)
		s.Equal(models.FlagNo, updated.Baptized)
		s.Equal(models.FlagUnset, updated.Visiting)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Update(s.ctx, "00000000-0000-0000-0000-000000000000", sampleRecord("X", "Y"))
		s.Require().ErrorIs(err, ErrNotFound)
	})
}

func (s *contractSuite) TestListRecent() {
	var ids []string
	for _, name := range []string{"Un", "Deux", "Trois", "Quatre"} {
		created, err := s.store.Create(s.ctx, sampleRecord(name, "Test"))
		s.Require().NoError(err)
		ids = append(ids, created.ID)
		s.advance(time.Second)
	}

	s.Run("newest first, bounded by limit", func() {
		recent, err := s.store.ListRecent(s.ctx, 3)
		s.Require().NoError(err)
		s.Require().Len(recent, 3)
		s.Equal(ids[3], recent[0].ID)
		s.Equal(ids[2], recent[1].ID)
		s.Equal(ids[1], recent[2].ID)
	})

	s.Run("limit above count returns all", func() {
		recent, err := s.store.ListRecent(s.ctx, 50)
		s.Require().NoError(err)
		s.Len(recent, 4)
	})
}

func (s *contractSuite) TestListSince() {
	old, err := s.store.Create(s.ctx, sampleRecord("Ancien", "Test"))
	s.Require().NoError(err)
	s.advance(48 * time.Hour)
	cutoff := old.CreatedAt.Add(24 * time.Hour)
	fresh, err := s.store.Create(s.ctx, sampleRecord("Nouveau", "Test"))
	s.Require().NoError(err)

	got, err := s.store.ListSince(s.ctx, cutoff, 100)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(fresh.ID, got[0].ID)
}
