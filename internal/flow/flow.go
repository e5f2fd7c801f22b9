// Package flow drives the capture journey of one registration form:
// upload a picture, wait for the extraction, review and save the result.
//
// A flow session moves through three states:
//
//	upload  --SubmitImage-->  waiting  --extraction ok-->  result
//	  ^                          |                           |
//	  +------Cancel / Retry------+                           |
//	  +----------------------Discard / Save------------------+
//
// Entering waiting and every reset bump the session generation. An
// extraction result is applied only while the generation it was started
// under is current, so a result arriving after a cancel, a reset or a close
// is dropped.
package flow

import (
	"time"

	"accueil/internal/provider"
	"accueil/internal/registration/models"
)

// State is the position of a flow session in the capture journey.
type State string

const (
	StateUpload  State = "upload"
	StateWaiting State = "waiting"
	StateResult  State = "result"
)

// Failure describes why the last extraction failed. It is only set while a
// session is waiting.
type Failure struct {
	Category  provider.ErrorCategory `json:"category"`
	Message   string                 `json:"message"`
	Retryable bool                   `json:"retryable"`
}

// Snapshot is the persisted state of one flow session.
type Snapshot struct {
	ID         string          `json:"id"`
	State      State           `json:"state"`
	Generation uint64          `json:"generation"`
	Image      []byte          `json:"image,omitempty"`
	ImageType  string          `json:"imageType,omitempty"`
	Fields     models.FieldMap `json:"fields,omitempty"`
	Failure    *Failure        `json:"failure,omitempty"`
	// SavingSince is set while a Save persists the fields of a result.
	SavingSince *time.Time `json:"savingSince,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Extracting reports whether an extraction is expected to be in flight.
func (s *Snapshot) Extracting() bool {
	return s.State == StateWaiting && s.Failure == nil
}

// Saving reports whether a save claim is held at now. A claim older than
// saveClaimTTL belongs to a save that never released it and is ignored.
func (s *Snapshot) Saving(now time.Time) bool {
	return s.SavingSince != nil && now.Sub(*s.SavingSince) < saveClaimTTL
}

// reset returns the session to upload, dropping the image and any fields.
// The generation is bumped so late results for the old image are stale.
func (s *Snapshot) reset(now time.Time) {
	s.State = StateUpload
	s.Generation++
	s.Image = nil
	s.ImageType = ""
	s.Fields = nil
	s.Failure = nil
	s.SavingSince = nil
	s.UpdatedAt = now
}

func (s *Snapshot) clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.Image != nil {
		c.Image = append([]byte(nil), s.Image...)
	}
	if s.Fields != nil {
		c.Fields = make(models.FieldMap, len(s.Fields))
		for k, v := range s.Fields {
			c.Fields[k] = v
		}
	}
	if s.Failure != nil {
		f := *s.Failure
		c.Failure = &f
	}
	if s.SavingSince != nil {
		t := *s.SavingSince
		c.SavingSince = &t
	}
	return &c
}

// failureFor turns an extraction error into the message shown to the user.
func failureFor(err error) *Failure {
	category := provider.GetCategory(err)
	f := &Failure{Category: category, Retryable: provider.IsRetryable(err)}
	switch category {
	case provider.ErrorNoFormDetected:
		f.Message = "No registration form was found in the picture."
	case provider.ErrorBadData:
		f.Message = "The picture could not be read. Please take another one."
	case provider.ErrorTimeout:
		f.Message = "The form reader took too long to answer."
	case provider.ErrorAuthentication:
		f.Message = "The form reader rejected the service credentials."
	case provider.ErrorRateLimited:
		f.Message = "Too many forms are being read right now."
	default:
		f.Message = "The form could not be read."
	}
	return f
}
