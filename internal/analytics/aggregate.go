// Package analytics turns a bounded set of registration records into the
// figures shown on the analytics screen.
//
// The aggregate functions are pure and single-pass. Only Locator performs I/O.
package analytics

import (
	"sort"
	"strings"
	"time"

	"accueil/internal/registration/models"
)

const (
	// TrendMonths is the length of the trailing registration trend.
	TrendMonths = 6

	// PlaceholderValue replaces a zero count in the display value so a
	// chart draws a visible bar. Raw counts are never substituted.
	PlaceholderValue = 0.1
)

// Bucket is one group of a categorical breakdown.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthCount is the number of registrations created in one calendar month.
type MonthCount struct {
	Month string  `json:"month"`
	Label string  `json:"label"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// BaptismSplit counts records with a baptism answer. Records without one
// are in neither bucket.
type BaptismSplit struct {
	Baptized    int `json:"baptized"`
	NotBaptized int `json:"notBaptized"`
}

// ByNationality groups records by trimmed nationality, exact match.
func ByNationality(records []*models.Record) []Bucket {
	return groupBy(records, func(r *models.Record) string { return r.Nationality })
}

// ByProfession groups records by trimmed profession, exact match.
func ByProfession(records []*models.Record) []Bucket {
	return groupBy(records, func(r *models.Record) string { return r.Profession })
}

// ByDiscoveryMethod groups records by how the member heard of the church.
func ByDiscoveryMethod(records []*models.Record) []Bucket {
	return groupBy(records, func(r *models.Record) string { return r.Discovery })
}

// Neighborhoods counts records per trimmed neighborhood.
func Neighborhoods(records []*models.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r == nil {
			continue
		}
		if label := strings.TrimSpace(r.Neighborhood); label != "" {
			counts[label]++
		}
	}
	return counts
}

// groupBy is case-sensitive; blank values are skipped rather than bucketed.
// Buckets are ordered by count descending, then label.
func groupBy(records []*models.Record, field func(*models.Record) string) []Bucket {
	counts := make(map[string]int)
	for _, r := range records {
		if r == nil {
			continue
		}
		if label := strings.TrimSpace(field(r)); label != "" {
			counts[label]++
		}
	}
	buckets := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, Bucket{Label: label, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

// Trend returns TrendMonths buckets, oldest first, ending with now's month.
// Months are calendar months in now's location.
func Trend(records []*models.Record, now time.Time) []MonthCount {
	loc := now.Location()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	months := make([]MonthCount, TrendMonths)
	index := make(map[string]int, TrendMonths)
	for i := range months {
		m := current.AddDate(0, i-(TrendMonths-1), 0)
		key := m.Format("2006-01")
		months[i] = MonthCount{Month: key, Label: m.Format("Jan")}
		index[key] = i
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		if i, ok := index[r.CreatedAt.In(loc).Format("2006-01")]; ok {
			months[i].Count++
		}
	}
	for i := range months {
		months[i].Value = displayValue(months[i].Count)
	}
	return months
}

// CurrentMonth counts records created in now's calendar month.
func CurrentMonth(records []*models.Record, now time.Time) MonthCount {
	loc := now.Location()
	mc := MonthCount{Month: now.Format("2006-01"), Label: now.Format("Jan")}
	for _, r := range records {
		if r == nil {
			continue
		}
		created := r.CreatedAt.In(loc)
		if created.Year() == now.Year() && created.Month() == now.Month() {
			mc.Count++
		}
	}
	mc.Value = displayValue(mc.Count)
	return mc
}

// Baptism splits records by baptism answer. The rule matches the badge
// shown in the recent list: unset answers are excluded.
func Baptism(records []*models.Record) BaptismSplit {
	var split BaptismSplit
	for _, r := range records {
		if r == nil {
			continue
		}
		switch r.Baptized {
		case models.FlagYes:
			split.Baptized++
		case models.FlagNo:
			split.NotBaptized++
		}
	}
	return split
}

func displayValue(count int) float64 {
	if count == 0 {
		return PlaceholderValue
	}
	return float64(count)
}
