package middleware

import (
	"fmt"
	"net/http"

	"github.com/mssola/useragent"

	"physioflow/pkg/requestcontext"
)

// Device parses the User-Agent header into a coarse browser/platform label and
// stores both in the request context. The label ends up in audit events; the
// raw header never leaves the request.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if raw := r.UserAgent(); raw != "" {
			ua := useragent.New(raw)
			name, version := ua.Browser()
			label := name
			if version != "" {
				label = fmt.Sprintf("%s %s", name, version)
			}
			if platform := ua.Platform(); platform != "" {
				label = fmt.Sprintf("%s (%s)", label, platform)
			}
			ctx = requestcontext.WithUserAgent(ctx, raw)
			ctx = requestcontext.WithDevice(ctx, label)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
