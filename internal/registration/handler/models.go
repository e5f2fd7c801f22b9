package handler

import (
	"fmt"
	"time"
	"unicode/utf8"

	"accueil/internal/registration/models"
	dErrors "accueil/pkg/domain-errors"
)

// MaxFieldLength bounds a single field value in runes.
const MaxFieldLength = 500

// FieldsRequest is a full field mapping keyed by form label, used for both
// creation and full-overwrite updates.
type FieldsRequest map[string]string

// Validate rejects oversized values. Unknown labels are tolerated and dropped.
func (r *FieldsRequest) Validate() error {
	for label, value := range *r {
		if utf8.RuneCountInString(value) > MaxFieldLength {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("field %q exceeds %d characters", label, MaxFieldLength))
		}
	}
	return nil
}

// RecordResponse is a record in API-label form.
type RecordResponse struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	DisplayName string            `json:"display_name"`
	Badge       string            `json:"badge,omitempty"`
	Baptized    *bool             `json:"baptized"`
	Visiting    *bool             `json:"visiting"`
	Fields      map[string]string `json:"fields"`
}

// ListResponse wraps the recent registrations list.
type ListResponse struct {
	Registrations []RecordResponse `json:"registrations"`
}

func toResponse(rec *models.Record) RecordResponse {
	return RecordResponse{
		ID:          rec.ID,
		CreatedAt:   rec.CreatedAt,
		DisplayName: rec.DisplayName(),
		Badge:       models.BadgeFor(rec.Baptized),
		Baptized:    rec.Baptized.Bool(),
		Visiting:    rec.Visiting.Bool(),
		Fields:      rec.Fields(),
	}
}

func toListResponse(recs []*models.Record) ListResponse {
	out := ListResponse{Registrations: make([]RecordResponse, 0, len(recs))}
	for _, rec := range recs {
		out.Registrations = append(out.Registrations, toResponse(rec))
	}
	return out
}
