package handler

import (
	"time"

	"accueil/internal/flow"
	"accueil/internal/registration/models"
	dErrors "accueil/pkg/domain-errors"
)

// MaxFieldLength bounds a single reviewed field value.
const MaxFieldLength = 500

// FieldsRequest is the full reviewed mapping sent by PUT /flows/{id}/fields.
type FieldsRequest map[string]string

func (r *FieldsRequest) Validate() error {
	if r == nil || *r == nil {
		return dErrors.New(dErrors.CodeValidation, "fields are required")
	}
	for k, v := range *r {
		if len(v) > MaxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "field "+k+" is too long")
		}
	}
	return nil
}

type FailureResponse struct {
	Category  string `json:"category"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// SessionResponse is a flow session without its picture bytes.
type SessionResponse struct {
	ID         string           `json:"id"`
	State      flow.State       `json:"state"`
	Generation uint64           `json:"generation"`
	HasImage   bool             `json:"hasImage"`
	ImageType  string           `json:"imageType,omitempty"`
	Extracting bool             `json:"extracting"`
	Saving     bool             `json:"saving"`
	Fields     models.FieldMap  `json:"fields,omitempty"`
	Failure    *FailureResponse `json:"failure,omitempty"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

type SaveResponse struct {
	Flow           SessionResponse `json:"flow"`
	RegistrationID string          `json:"registrationId"`
}

func toResponse(s *flow.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:         s.ID,
		State:      s.State,
		Generation: s.Generation,
		HasImage:   len(s.Image) > 0,
		ImageType:  s.ImageType,
		Extracting: s.Extracting(),
		Saving:     s.Saving(time.Now()),
		Fields:     s.Fields,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Failure != nil {
		resp.Failure = &FailureResponse{
			Category:  string(s.Failure.Category),
			Message:   s.Failure.Message,
			Retryable: s.Failure.Retryable,
		}
	}
	return resp
}
