package testutil

import (
	"net/http"

	"accueil/pkg/requestcontext"
)

// WithRequestID attaches a request ID without going through the middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
