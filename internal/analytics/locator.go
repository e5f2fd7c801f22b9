package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"accueil/internal/geocode"
)

// DefaultLookupConcurrency bounds simultaneous geocoding calls.
const DefaultLookupConcurrency = 8

// DefaultRegion is the map region shown when no neighborhood resolves.
var DefaultRegion = Region{
	Latitude:       46.2276,
	Longitude:      2.2137,
	LatitudeDelta:  10,
	LongitudeDelta: 10,
}

// Region is a map viewport.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// Location is a resolved neighborhood with its registration count.
type Location struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Region     Region  `json:"location"`
	Count      int     `json:"count"`
	MarkerSize float64 `json:"markerSize"`
}

// MarkerSize grows logarithmically with the count.
func MarkerSize(count int) float64 {
	return 30 + math.Log10(float64(count)+1)*15
}

// Locator resolves neighborhoods concurrently. A lookup that fails drops
// its neighborhood from the result and never affects the others.
type Locator struct {
	resolver    geocode.Resolver
	logger      *slog.Logger
	concurrency int
}

type LocatorOption func(*Locator)

func WithLocatorLogger(logger *slog.Logger) LocatorOption {
	return func(l *Locator) { l.logger = logger }
}

func WithConcurrency(n int) LocatorOption {
	return func(l *Locator) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// NewLocator creates a Locator. A nil resolver yields no locations.
func NewLocator(resolver geocode.Resolver, opts ...LocatorOption) *Locator {
	l := &Locator{
		resolver:    resolver,
		logger:      slog.Default(),
		concurrency: DefaultLookupConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate issues one lookup per distinct neighborhood and returns the ones
// that resolved, by count descending then name. Nothing is cached.
func (l *Locator) Locate(ctx context.Context, counts map[string]int) []Location {
	if l == nil || l.resolver == nil || len(counts) == 0 {
		return nil
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}

	resolved := make([]*Location, len(names))
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, name := range names {
		g.Go(func() error {
			place, err := l.resolver.Resolve(ctx, name)
			if err != nil {
				l.logger.WarnContext(ctx, "neighborhood lookup failed",
					"neighborhood", name,
					"error", err,
				)
				return nil
			}
			if place == nil {
				l.logger.WarnContext(ctx, "neighborhood lookup returned no place",
					"neighborhood", name,
				)
				return nil
			}
			resolved[i] = &Location{
				ID:   place.ID,
				Name: name,
				Region: Region{
					Latitude:       place.Latitude,
					Longitude:      place.Longitude,
					LatitudeDelta:  place.LatitudeDelta,
					LongitudeDelta: place.LongitudeDelta,
				},
				Count:      counts[name],
				MarkerSize: MarkerSize(counts[name]),
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Location, 0, len(resolved))
	for _, loc := range resolved {
		if loc != nil {
			out = append(out, *loc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// InitialRegion centers on the first location, or DefaultRegion.
func InitialRegion(locations []Location) Region {
	if len(locations) == 0 {
		return DefaultRegion
	}
	return locations[0].Region
}
