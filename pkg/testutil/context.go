package testutil

import (
	"net/http"

	"bgv/pkg/requestcontext"
)

// WithActor sets the acting reviewer the way the metadata middleware does
// for incoming requests.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}
