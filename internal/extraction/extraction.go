// Package extraction reads a photographed registration form with a vision
// language model and returns its fields keyed by form label.
package extraction

import (
	"context"
	"errors"

	"accueil/internal/registration/models"
)

// Prompt is the instruction sent alongside every image.
const Prompt = "Read and parse the content from this form"

// ErrNoFormDetected is returned when the model answers with an empty list.
// It is wrapped in a provider.Error with category no_form_detected.
var ErrNoFormDetected = errors.New("no form detected in image")

// Image is an encoded picture ready to send to the model.
type Image struct {
	Data     []byte
	MimeType string
}

// Extractor turns one form image into a complete field mapping. Every label
// is present in a successful result; unknown values are empty strings.
type Extractor interface {
	Extract(ctx context.Context, img Image) (models.FieldMap, error)
}
