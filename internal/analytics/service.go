package analytics

import (
	"context"
	"log/slog"
	"time"

	"accueil/internal/registration/models"
)

// RecordSource fetches the bounded record window the report is built from.
type RecordSource interface {
	AnalyticsWindow(ctx context.Context, now time.Time) ([]*models.Record, error)
}

// Report is everything the analytics screen renders.
type Report struct {
	GeneratedAt       time.Time    `json:"generatedAt"`
	Records           int          `json:"records"`
	CurrentMonth      MonthCount   `json:"currentMonth"`
	Trend             []MonthCount `json:"trend"`
	ByNationality     []Bucket     `json:"byNationality"`
	ByProfession      []Bucket     `json:"byProfession"`
	ByDiscoveryMethod []Bucket     `json:"byDiscoveryMethod"`
	Baptism           BaptismSplit `json:"baptism"`
	Locations         []Location   `json:"locations"`
	Region            Region       `json:"region"`
}

// Service assembles reports.
type Service struct {
	source  RecordSource
	locator *Locator
	loc     *time.Location
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLocation sets the time zone calendar months are counted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. locator may be nil to skip the map.
func NewService(source RecordSource, locator *Locator, opts ...Option) *Service {
	s := &Service{
		source:  source,
		locator: locator,
		loc:     time.Local,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report fetches the analytics window and aggregates it. A fetch failure is
// returned unchanged; geocoding failures only shrink the location list.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	now := s.now().In(s.loc)
	records, err := s.source.AnalyticsWindow(ctx, now)
	if err != nil {
		return nil, err
	}

	locations := s.locator.Locate(ctx, Neighborhoods(records))
	if locations == nil {
		locations = []Location{}
	}
	report := &Report{
		GeneratedAt:       now,
		Records:           len(records),
		CurrentMonth:      CurrentMonth(records, now),
		Trend:             Trend(records, now),
		ByNationality:     ByNationality(records),
		ByProfession:      ByProfession(records),
		ByDiscoveryMethod: ByDiscoveryMethod(records),
		Baptism:           Baptism(records),
		Locations:         locations,
		Region:            InitialRegion(locations),
	}
	s.logger.DebugContext(ctx, "analytics report built",
		"records", report.Records,
		"locations", len(locations),
	)
	return report, nil
}
