package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	consenthandler "physioflow/internal/consent/handler"
	"physioflow/internal/platform/health"
	"physioflow/internal/platform/middleware"
)

// RouterConfig carries the transport-level wiring for the public router.
type RouterConfig struct {
	ClientIdentity middleware.ClientIdentityConfig
}

// NewRouter wires the public endpoints with the middleware stack. Health and
// metrics bypass the client identity cookie so probes never set cookies.
func NewRouter(consent *consenthandler.Handler, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.ClientIdentity(cfg.ClientIdentity, logger))
		r.Use(middleware.Device)
		consent.Register(r)
	})

	return r
}
